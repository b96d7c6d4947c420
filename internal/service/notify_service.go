package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pokrovsky/timetable-api/internal/models"
	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
)

// Sender delivers one rendered message to one user.
type Sender interface {
	Send(ctx context.Context, userID int64, html string) error
}

// PreferenceStore lists notification subscribers.
type PreferenceStore interface {
	UsersForNew(ctx context.Context) ([]models.UserPreference, error)
	UsersForChanges(ctx context.Context) ([]models.UserPreference, error)
}

// EventLog records delivery outcomes. Nil disables auditing.
type EventLog interface {
	Log(ctx context.Context, userID int64, kind, payload string) (string, error)
}

// UserDirectory lists every known user for service-wide announcements.
type UserDirectory interface {
	All(ctx context.Context) ([]models.User, error)
}

// NotifyService fans timetable events out to subscribed users. One user's
// failure never blocks the rest of the broadcast.
type NotifyService struct {
	schedules   *ScheduleService
	prefs       PreferenceStore
	users       UserDirectory
	events      EventLog
	sender      Sender
	metrics     *MetricsService
	logger      *zap.Logger
	concurrency int
	loc         *time.Location
	now         func() time.Time
}

// NotifyOption customizes a NotifyService.
type NotifyOption func(*NotifyService)

// WithUserDirectory enables service-wide broadcasts to every known user.
func WithUserDirectory(users UserDirectory) NotifyOption {
	return func(s *NotifyService) { s.users = users }
}

// WithTimezone sets the timezone used for timestamps in change descriptors.
func WithTimezone(loc *time.Location) NotifyOption {
	return func(s *NotifyService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewNotifyService constructs a NotifyService.
func NewNotifyService(schedules *ScheduleService, prefs PreferenceStore, events EventLog, sender Sender, concurrency int, metrics *MetricsService, logger *zap.Logger, opts ...NotifyOption) *NotifyService {
	if concurrency <= 0 {
		concurrency = 20
	}
	s := &NotifyService{
		schedules:   schedules,
		prefs:       prefs,
		events:      events,
		sender:      sender,
		metrics:     metrics,
		logger:      logger,
		concurrency: concurrency,
		loc:         time.UTC,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotifyNew sends each subscriber their own class's schedule for a freshly
// published date. Subscribers whose class is missing from the sheet are
// skipped with an audit event; nobody gets a bare announcement.
func (s *NotifyService) NotifyNew(ctx context.Context, date string) error {
	if s.prefs == nil || s.sender == nil {
		return nil
	}
	users, err := s.prefs.UsersForNew(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			s.deliverNew(gctx, date, user)
			return nil
		})
	}
	return g.Wait()
}

func (s *NotifyService) deliverNew(ctx context.Context, date string, user models.UserPreference) {
	if user.Class == "" {
		return
	}
	meta := date + "|" + user.Class

	rendered, err := s.schedules.RenderSchedule(ctx, date, user.Class)
	if err != nil {
		if errors.Is(err, appErrors.ErrClassNotFound) {
			s.logEvent(ctx, user.UserID, models.EventNotifyNewSkip, meta)
			return
		}
		if s.logger != nil {
			s.logger.Warn("render for notification failed",
				zap.Int64("user", user.UserID), zap.String("class", user.Class), zap.Error(err))
		}
		s.logEvent(ctx, user.UserID, models.EventNotifyNewError, meta)
		return
	}

	body := fmt.Sprintf("Новое расписание на <b>%s</b>\n\n%s", date, rendered)
	err = s.sender.Send(ctx, user.UserID, body)
	s.metrics.RecordNotification(err)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("notification failed", zap.Int64("user", user.UserID), zap.Error(err))
		}
		s.logEvent(ctx, user.UserID, models.EventNotifyNewError, meta)
		return
	}
	s.logEvent(ctx, user.UserID, models.EventNotifyNewSent, meta)
}

// NotifyChanged tells change subscribers which sheet of a date was edited.
// The descriptor carries the tab title and a local timestamp; no schedule
// body is attached.
func (s *NotifyService) NotifyChanged(ctx context.Context, date, tab string) error {
	if s.prefs == nil || s.sender == nil {
		return nil
	}
	users, err := s.prefs.UsersForChanges(ctx)
	if err != nil {
		return err
	}

	stamp := s.now().In(s.loc).Format("02.01.2006 (15:04 MST)")
	body := fmt.Sprintf("Обновления в расписании на <b>%s</b>\n\nИзменения в листе «%s»\n%s", date, tab, stamp)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			err := s.sender.Send(gctx, user.UserID, body)
			s.metrics.RecordNotification(err)
			if err != nil {
				if s.logger != nil {
					s.logger.Warn("notification failed", zap.Int64("user", user.UserID), zap.Error(err))
				}
				s.logEvent(gctx, user.UserID, models.EventNotifyChangeError, date)
				return nil
			}
			s.logEvent(gctx, user.UserID, models.EventNotifyChangeSent, date)
			return nil
		})
	}
	return g.Wait()
}

// Broadcast sends a plain announcement to every known user. It requires a
// user directory and delivers with the same bounded concurrency as the
// schedule notifications.
func (s *NotifyService) Broadcast(ctx context.Context, html string) error {
	if s.users == nil || s.sender == nil {
		return nil
	}
	users, err := s.users.All(ctx)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, user := range users {
		user := user
		g.Go(func() error {
			err := s.sender.Send(gctx, user.ID, html)
			s.metrics.RecordNotification(err)
			if err != nil {
				if s.logger != nil {
					s.logger.Warn("broadcast failed", zap.Int64("user", user.ID), zap.Error(err))
				}
				return nil
			}
			s.logEvent(gctx, user.ID, models.EventBroadcast, html)
			return nil
		})
	}
	return g.Wait()
}

func (s *NotifyService) logEvent(ctx context.Context, userID int64, kind, payload string) {
	if s.events == nil {
		return
	}
	if _, err := s.events.Log(ctx, userID, kind, payload); err != nil && s.logger != nil {
		s.logger.Warn("event log failed", zap.String("kind", kind), zap.Error(err))
	}
}
