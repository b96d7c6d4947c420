package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pokrovsky/timetable-api/internal/service"
	appErrors "github.com/pokrovsky/timetable-api/pkg/errors"
	"github.com/pokrovsky/timetable-api/pkg/response"
)

type cabinetService interface {
	Index(ctx context.Context, date string) (service.CabinetIndex, error)
}

// CabinetHandler serves the per-date room occupancy index.
type CabinetHandler struct {
	service cabinetService
}

// NewCabinetHandler constructs the handler.
func NewCabinetHandler(service cabinetService) *CabinetHandler {
	return &CabinetHandler{service: service}
}

// Get returns room occupancy grouped by floor for one date.
func (h *CabinetHandler) Get(c *gin.Context) {
	date := c.Param("date")
	if !dateParamRx.MatchString(date) {
		response.Error(c, appErrors.ErrValidation.WithMessage("date must be dd.mm"))
		return
	}
	idx, err := h.service.Index(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, idx)
}
