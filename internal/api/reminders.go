// internal/api/reminders.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	stderrors "compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/models"
)

type enableRemindersRequest struct {
	Channels []string `json:"channels"`
}

func (h *Handlers) enableReminders(c *gin.Context) {
	var req enableRemindersRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, stderrors.NewValidationFailedError(err.Error()))
			return
		}
	}

	channels := make([]models.ReminderChannel, len(req.Channels))
	for i, ch := range req.Channels {
		channels[i] = models.ReminderChannel(ch)
	}

	created, err := h.scheduler.EnableReminders(c.Request.Context(), c.Param("id"), actorID(c), channels, actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": created})
}
