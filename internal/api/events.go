// internal/api/events.go
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	stderrors "compliance-calendar/internal/common/errors"
	"compliance-calendar/internal/models"
	"compliance-calendar/internal/store"
)

type createEventRequest struct {
	Title       string   `json:"title"`
	Notes       string   `json:"notes"`
	Category    string   `json:"category"`
	DueDate     string   `json:"dueDate"` // YYYY-MM-DD
	Recurrence  string   `json:"recurrence"`
	DocumentRef string   `json:"documentRef"`
	Tags        []string `json:"tags"`
}

func (h *Handlers) createEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, stderrors.NewValidationFailedError(err.Error()))
		return
	}
	if req.Title == "" {
		respondError(c, stderrors.NewValidationFailedError("title is required"))
		return
	}

	category := models.EventCategory(req.Category)
	if !category.Valid() {
		respondError(c, stderrors.NewValidationFailedError("unknown category: "+req.Category))
		return
	}

	recurrence := models.RecurrenceNone
	if req.Recurrence != "" {
		recurrence = models.Recurrence(req.Recurrence)
		if !recurrence.Valid() {
			respondError(c, stderrors.NewValidationFailedError("unknown recurrence: "+req.Recurrence))
			return
		}
	}

	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		respondError(c, stderrors.NewValidationFailedError("dueDate must be YYYY-MM-DD"))
		return
	}

	event := &models.ComplianceEvent{
		Title:       req.Title,
		Notes:       req.Notes,
		Category:    category,
		DueDate:     dueDate,
		Recurrence:  recurrence,
		DocumentRef: req.DocumentRef,
		Tags:        req.Tags,
		Active:      true,
		CreatedBy:   actorID(c),
	}
	if err := h.events.Create(c.Request.Context(), event); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *Handlers) listEvents(c *gin.Context) {
	filter := store.EventFilter{
		ActiveOnly: c.Query("includeInactive") != "true",
		Page:       queryInt(c, "page", 1),
		Limit:      queryInt(c, "limit", 50),
	}
	if cat := c.Query("category"); cat != "" {
		category := models.EventCategory(cat)
		if !category.Valid() {
			respondError(c, stderrors.NewValidationFailedError("unknown category: "+cat))
			return
		}
		filter.Category = category
	}
	if from := c.Query("dueFrom"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			respondError(c, stderrors.NewValidationFailedError("dueFrom must be YYYY-MM-DD"))
			return
		}
		filter.DueFrom = t
	}
	if to := c.Query("dueTo"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			respondError(c, stderrors.NewValidationFailedError("dueTo must be YYYY-MM-DD"))
			return
		}
		filter.DueTo = t
	}

	events, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "page": filter.Page, "limit": filter.Limit})
}

func (h *Handlers) getEvent(c *gin.Context) {
	event, err := h.events.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handlers) deactivateEvent(c *gin.Context) {
	if err := h.events.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
