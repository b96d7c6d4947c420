package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pokrovsky/timetable-api/internal/models"
	"github.com/pokrovsky/timetable-api/pkg/response"
)

type linkService interface {
	Links(ctx context.Context, force bool) ([]models.SheetLink, error)
}

// LinkHandler serves the list of published timetable dates.
type LinkHandler struct {
	service linkService
}

// NewLinkHandler constructs the handler.
func NewLinkHandler(service linkService) *LinkHandler {
	return &LinkHandler{service: service}
}

// List returns published links, newest first. refresh=true bypasses the
// link cache.
func (h *LinkHandler) List(c *gin.Context) {
	force := c.Query("refresh") == "true"
	links, err := h.service.Links(c.Request.Context(), force)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, links)
}
