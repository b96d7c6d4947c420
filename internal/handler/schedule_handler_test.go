package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokrovsky/timetable-api/internal/grid"
	"github.com/pokrovsky/timetable-api/internal/models"
	"github.com/pokrovsky/timetable-api/internal/service"
	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
)

type scheduleServiceMock struct {
	entries  []grid.Entry
	rendered string
	err      error
}

func (m *scheduleServiceMock) Schedule(_ context.Context, _, _ string) ([]grid.Entry, string, error) {
	return m.entries, "10Б", m.err
}

func (m *scheduleServiceMock) RenderSchedule(_ context.Context, _, _ string) (string, error) {
	return m.rendered, m.err
}

func doRequest(t *testing.T, h gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, target, nil)
	require.NoError(t, err)
	c.Request = req
	h(c)
	return w
}

func TestScheduleGetJSON(t *testing.T) {
	mock := &scheduleServiceMock{entries: []grid.Entry{
		{Time: "09:00 - 09:45", Subject: "Математика", Cabinet: "305"},
	}}
	h := NewScheduleHandler(mock)

	w := doRequest(t, h.Get, "/schedule?date=02.09&class=10Б")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Class   string       `json:"class"`
			Lessons []grid.Entry `json:"lessons"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "10Б", body.Data.Class)
	require.Len(t, body.Data.Lessons, 1)
	assert.Equal(t, "305", body.Data.Lessons[0].Cabinet)
}

func TestScheduleGetBadDate(t *testing.T) {
	h := NewScheduleHandler(&scheduleServiceMock{})

	w := doRequest(t, h.Get, "/schedule?date=2023-09-02&class=10Б")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGetMissingClass(t *testing.T) {
	h := NewScheduleHandler(&scheduleServiceMock{})

	w := doRequest(t, h.Get, "/schedule?date=02.09")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGetNotFound(t *testing.T) {
	h := NewScheduleHandler(&scheduleServiceMock{err: appErrors.ErrDateNotFound})

	w := doRequest(t, h.Get, "/schedule?date=02.09&class=10Б")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleGetBadFormat(t *testing.T) {
	h := NewScheduleHandler(&scheduleServiceMock{})

	w := doRequest(t, h.Get, "/schedule?date=02.09&class=10Б&format=xml")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleGetCSV(t *testing.T) {
	mock := &scheduleServiceMock{entries: []grid.Entry{
		{Time: "09:00 - 09:45", Subject: "Математика", Cabinet: "305"},
	}}
	h := NewScheduleHandler(mock)

	w := doRequest(t, h.Get, "/schedule?date=02.09&class=10Б&format=csv")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule-02.09-10Б.csv")
	assert.Contains(t, w.Body.String(), "Математика")
}

type linkServiceMock struct {
	links []models.SheetLink
	force bool
}

func (m *linkServiceMock) Links(_ context.Context, force bool) ([]models.SheetLink, error) {
	m.force = force
	return m.links, nil
}

func TestLinkList(t *testing.T) {
	mock := &linkServiceMock{links: []models.SheetLink{{Date: "02.09", Title: "Расписание уроков на 02.09"}}}
	h := NewLinkHandler(mock)

	w := doRequest(t, h.List, "/links?refresh=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.force)
	assert.Contains(t, w.Body.String(), "02.09")
}

type cabinetServiceMock struct {
	idx service.CabinetIndex
	err error
}

func (m *cabinetServiceMock) Index(_ context.Context, date string) (service.CabinetIndex, error) {
	m.idx.Date = date
	return m.idx, m.err
}

func TestCabinetGet(t *testing.T) {
	h := NewCabinetHandler(&cabinetServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/cabinets/02.09", nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "date", Value: "02.09"}}
	h.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "02.09")
}

func TestCabinetGetBadDate(t *testing.T) {
	h := NewCabinetHandler(&cabinetServiceMock{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodGet, "/cabinets/tomorrow", nil)
	require.NoError(t, err)
	c.Request = req
	c.Params = gin.Params{{Key: "date", Value: "tomorrow"}}
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
