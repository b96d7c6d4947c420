package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pokrovsky/timetable-api/internal/models"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    map[int64]string
	failFor int64
}

func (s *recordingSender) Send(_ context.Context, userID int64, html string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID == s.failFor {
		return fmt.Errorf("blocked by user")
	}
	if s.sent == nil {
		s.sent = make(map[int64]string)
	}
	s.sent[userID] = html
	return nil
}

type fakePrefs struct {
	users []models.UserPreference
}

func (f *fakePrefs) UsersForNew(_ context.Context) ([]models.UserPreference, error) {
	return f.users, nil
}

func (f *fakePrefs) UsersForChanges(_ context.Context) ([]models.UserPreference, error) {
	return f.users, nil
}

type recordingEvents struct {
	mu    sync.Mutex
	kinds map[int64]string
}

func (e *recordingEvents) Log(_ context.Context, userID int64, kind, _ string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.kinds == nil {
		e.kinds = make(map[int64]string)
	}
	e.kinds[userID] = kind
	return "id", nil
}

func TestNotifyNewRendersPerSubscriber(t *testing.T) {
	schedules := newTestScheduleService(newFakeFetcher(fixturePages()))
	sender := &recordingSender{failFor: 3}
	prefs := &fakePrefs{users: []models.UserPreference{
		{UserID: 1},
		{UserID: 2, Class: "10Б"},
		{UserID: 3, Class: "10А"},
	}}
	events := &recordingEvents{}

	svc := NewNotifyService(schedules, prefs, events, sender, 4, NewMetricsService(), zap.NewNop())
	require.NoError(t, svc.NotifyNew(context.Background(), "02.09"))

	// a subscriber without a class gets nothing, not even a header
	assert.NotContains(t, sender.sent, int64(1))
	assert.Contains(t, sender.sent[2], "Новое расписание на <b>02.09</b>")
	assert.Contains(t, sender.sent[2], "Класс: <b>10Б</b>")

	assert.Equal(t, models.EventNotifyNewSent, events.kinds[2])
	assert.Equal(t, models.EventNotifyNewError, events.kinds[3])
	assert.NotContains(t, events.kinds, int64(1))
}

func TestNotifyNewSkipsClassMissingFromSheet(t *testing.T) {
	schedules := newTestScheduleService(newFakeFetcher(fixturePages()))
	sender := &recordingSender{}
	prefs := &fakePrefs{users: []models.UserPreference{{UserID: 7, Class: "10Ц"}}}
	events := &recordingEvents{}

	svc := NewNotifyService(schedules, prefs, events, sender, 4, NewMetricsService(), zap.NewNop())
	require.NoError(t, svc.NotifyNew(context.Background(), "02.09"))

	assert.NotContains(t, sender.sent, int64(7))
	assert.Equal(t, models.EventNotifyNewSkip, events.kinds[7])
}

func TestNotifyChangedSendsSheetDescriptor(t *testing.T) {
	schedules := newTestScheduleService(newFakeFetcher(fixturePages()))
	sender := &recordingSender{}
	// change subscribers need no class, the descriptor carries no schedule
	prefs := &fakePrefs{users: []models.UserPreference{{UserID: 5}}}
	events := &recordingEvents{}

	loc := time.FixedZone("MSK", 3*60*60)
	svc := NewNotifyService(schedules, prefs, events, sender, 4, NewMetricsService(), zap.NewNop(),
		WithTimezone(loc))
	svc.now = func() time.Time {
		return time.Date(2025, 9, 2, 5, 30, 0, 0, time.UTC)
	}
	require.NoError(t, svc.NotifyChanged(context.Background(), "02.09", "10 классы"))

	body := sender.sent[5]
	assert.Contains(t, body, "Обновления в расписании на <b>02.09</b>")
	assert.Contains(t, body, "Изменения в листе «10 классы»")
	assert.Contains(t, body, "02.09.2025 (08:30 MSK)")
	assert.NotContains(t, body, "Класс:")
	assert.Equal(t, models.EventNotifyChangeSent, events.kinds[5])
}

type fakeUserDirectory struct {
	users []models.User
}

func (f *fakeUserDirectory) All(_ context.Context) ([]models.User, error) {
	return f.users, nil
}

func TestBroadcastReachesEveryUser(t *testing.T) {
	schedules := newTestScheduleService(newFakeFetcher(fixturePages()))
	sender := &recordingSender{}
	users := &fakeUserDirectory{users: []models.User{{ID: 1}, {ID: 2}}}
	events := &recordingEvents{}

	svc := NewNotifyService(schedules, &fakePrefs{}, events, sender, 4, NewMetricsService(), zap.NewNop(),
		WithUserDirectory(users))
	require.NoError(t, svc.Broadcast(context.Background(), "Техработы в 20:00"))

	assert.Equal(t, "Техработы в 20:00", sender.sent[1])
	assert.Equal(t, "Техработы в 20:00", sender.sent[2])
	assert.Equal(t, models.EventBroadcast, events.kinds[1])
}

func TestBroadcastWithoutDirectoryIsNoop(t *testing.T) {
	schedules := newTestScheduleService(newFakeFetcher(fixturePages()))
	svc := NewNotifyService(schedules, &fakePrefs{}, nil, &recordingSender{}, 4, NewMetricsService(), zap.NewNop())
	assert.NoError(t, svc.Broadcast(context.Background(), "x"))
}

func TestNotifyWithoutSenderIsNoop(t *testing.T) {
	schedules := newTestScheduleService(newFakeFetcher(fixturePages()))
	prefs := &fakePrefs{users: []models.UserPreference{{UserID: 1, Class: "10Б"}}}

	svc := NewNotifyService(schedules, prefs, nil, nil, 4, NewMetricsService(), zap.NewNop())
	assert.NoError(t, svc.NotifyNew(context.Background(), "02.09"))
}
