package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokrovsky/timetable-api/internal/service"
)

// Register mounts all routes on the engine under the given API prefix.
func Register(r *gin.Engine, prefix string, links *LinkHandler, schedules *ScheduleHandler, cabinets *CabinetHandler, metrics *service.MetricsService) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(prefix)
	api.GET("/links", links.List)
	api.GET("/schedule", schedules.Get)
	api.GET("/cabinets/:date", cabinets.Get)
}
