// internal/api/router.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"compliance-calendar/internal/calendar"
	"compliance-calendar/internal/common/config"
	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/store"
)

// Handlers bundles the services the API routes delegate to.
type Handlers struct {
	events    *store.EventStore
	tracker   *calendar.Tracker
	scheduler *calendar.Scheduler
}

func NewHandlers(events *store.EventStore, tracker *calendar.Tracker, scheduler *calendar.Scheduler) *Handlers {
	return &Handlers{events: events, tracker: tracker, scheduler: scheduler}
}

// NewRouter wires the versioned API. Health and metrics stay outside the
// identity middleware so probes and scrapers need no token.
func NewRouter(cfg *config.Config, h *Handlers, log logger.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.App.Name})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1", Identity(cfg.Auth, log))
	{
		v1.POST("/events", RequireAdmin(), h.createEvent)
		v1.GET("/events", h.listEvents)
		v1.GET("/events/:id", h.getEvent)
		v1.DELETE("/events/:id", RequireAdmin(), h.deactivateEvent)

		v1.GET("/events/:id/status", h.getStatus)
		v1.PUT("/events/:id/status", h.setStatus)
		v1.POST("/events/:id/attachments", h.addAttachment)

		v1.POST("/events/:id/reminders", h.enableReminders)

		v1.GET("/compliance/summary", h.complianceSummary)
		v1.GET("/compliance/statuses", h.complianceStatuses)
		v1.GET("/compliance/history", h.complianceHistory)
	}

	return r
}
