package handler

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pokrovsky/timetable-api/internal/grid"
	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
	"github.com/pokrovsky/timetable-api/pkg/export"
	"github.com/pokrovsky/timetable-api/pkg/response"
)

var dateParamRx = regexp.MustCompile(`^\d{2}\.\d{2}$`)

type scheduleService interface {
	Schedule(ctx context.Context, date, class string) ([]grid.Entry, string, error)
	RenderSchedule(ctx context.Context, date, class string) (string, error)
}

// ScheduleHandler serves per-class timetables in several formats.
type ScheduleHandler struct {
	service scheduleService
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
	}
}

// Get returns one class schedule. format selects json (default), html, csv
// or pdf.
func (h *ScheduleHandler) Get(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	class := strings.TrimSpace(c.Query("class"))
	if !dateParamRx.MatchString(date) {
		response.Error(c, appErrors.ErrValidation.WithMessage("date must be dd.mm"))
		return
	}
	if class == "" {
		response.Error(c, appErrors.ErrValidation.WithMessage("class is required"))
		return
	}

	ctx := c.Request.Context()
	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "json":
		entries, label, err := h.service.Schedule(ctx, date, class)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, gin.H{"date": date, "class": label, "lessons": entries})
	case "html":
		rendered, err := h.service.RenderSchedule(ctx, date, class)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, gin.H{"date": date, "rendered": rendered})
	case "csv":
		data, label, err := h.dataset(ctx, date, class)
		if err != nil {
			response.Error(c, err)
			return
		}
		payload, err := h.csv.Render(data)
		if err != nil {
			response.Error(c, err)
			return
		}
		serveFile(c, payload, "text/csv", fmt.Sprintf("schedule-%s-%s.csv", date, label))
	case "pdf":
		data, label, err := h.dataset(ctx, date, class)
		if err != nil {
			response.Error(c, err)
			return
		}
		title := fmt.Sprintf("Расписание %s на %s", label, date)
		payload, err := h.pdf.Render(data, title)
		if err != nil {
			response.Error(c, err)
			return
		}
		serveFile(c, payload, "application/pdf", fmt.Sprintf("schedule-%s-%s.pdf", date, label))
	default:
		response.Error(c, appErrors.ErrValidation.WithMessage("format must be json, html, csv or pdf"))
	}
}

func (h *ScheduleHandler) dataset(ctx context.Context, date, class string) (export.Dataset, string, error) {
	entries, label, err := h.service.Schedule(ctx, date, class)
	if err != nil {
		return export.Dataset{}, "", err
	}
	data := export.Dataset{Headers: []string{"Время", "Предмет", "Кабинет"}}
	for _, e := range entries {
		data.Rows = append(data.Rows, []string{e.Time, e.Subject, e.Cabinet})
	}
	return data, label, nil
}

func serveFile(c *gin.Context, payload []byte, contentType, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
