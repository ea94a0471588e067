// internal/api/status.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"compliance-calendar/internal/calendar"
	stderrors "compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/models"
)

func (h *Handlers) getStatus(c *gin.Context) {
	st, err := h.tracker.GetOrDefault(c.Request.Context(), c.Param("id"), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type setStatusRequest struct {
	Status   string `json:"status"`
	DatePaid string `json:"datePaid"` // YYYY-MM-DD
	Notes    string `json:"notes"`
}

func (h *Handlers) setStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, stderrors.NewValidationFailedError(err.Error()))
		return
	}

	in := calendar.SetStatusInput{
		EventID:    c.Param("id"),
		EmployerID: actorID(c),
		State:      models.ComplianceState(req.Status),
		Notes:      req.Notes,
		Actor:      actorID(c),
	}
	if req.DatePaid != "" {
		paid, err := time.Parse("2006-01-02", req.DatePaid)
		if err != nil {
			respondError(c, stderrors.NewValidationFailedError("datePaid must be YYYY-MM-DD"))
			return
		}
		in.DatePaid = &paid
	}

	st, err := h.tracker.SetStatus(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

type attachmentRequest struct {
	FileRef string `json:"fileRef"`
}

func (h *Handlers) addAttachment(c *gin.Context) {
	var req attachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FileRef == "" {
		respondError(c, stderrors.NewValidationFailedError("fileRef is required"))
		return
	}

	if err := h.tracker.AppendAttachment(c.Request.Context(), c.Param("id"), actorID(c), req.FileRef, actorID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) complianceSummary(c *gin.Context) {
	counts, err := h.tracker.Summary(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employerId": actorID(c), "counts": counts})
}

func (h *Handlers) complianceStatuses(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)

	statuses, err := h.tracker.Statuses(c.Request.Context(), actorID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses, "page": page, "limit": limit})
}

func (h *Handlers) complianceHistory(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)

	reminders, err := h.tracker.History(c.Request.Context(), actorID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders, "page": page, "limit": limit})
}
