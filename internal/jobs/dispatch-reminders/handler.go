// internal/jobs/dispatch-reminders/handler.go
package dispatchreminders

import (
	"context"
	"strings"
	"time"

	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/common/metrics"
	"compliance-calendar/internal/common/validation"
	"compliance-calendar/internal/models"
	"compliance-calendar/internal/notify"
	"compliance-calendar/pkg/registry"
)

const maxRetryReason = "Max retry attempts exceeded"

// Handler drains the queue of due PENDING reminders. Each run is bounded
// by the batch size; anything left over is picked up on the next tick.
type Handler struct {
	config    *Config
	reminders ReminderSource
	notifier  notify.Notifier
	auditor   notify.Auditor
	lease     Lease
	registry  *registry.NotificationRegistry
	logger    logger.Logger
}

func NewHandler(deps Dependencies, config *Config, reg *registry.NotificationRegistry, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		reminders: deps.Reminders,
		notifier:  deps.Notifier,
		auditor:   deps.Auditor,
		lease:     deps.Lease,
		registry:  reg,
		logger:    log.WithFields(map[string]interface{}{"job": JobName}),
	}
}

// Run executes one dispatch window. Per-reminder failures never abort the
// batch; the reminder is rescheduled or marked failed and the loop moves on.
func (h *Handler) Run(ctx context.Context) (*RunReport, error) {
	acquired, err := h.lease.Acquire(ctx, JobName, h.config.LeaseTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		h.logger.Info("lease held elsewhere, skipping run", nil)
		return &RunReport{}, nil
	}
	defer func() {
		if err := h.lease.Release(context.WithoutCancel(ctx), JobName); err != nil {
			h.logger.Warn("lease release failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	now := time.Now().UTC()
	due, err := h.reminders.ListDue(ctx, now, h.config.BatchSize)
	if err != nil {
		return nil, err
	}

	report := &RunReport{Due: len(due)}
	for _, r := range due {
		h.dispatchOne(ctx, r, now, report)
	}

	h.logger.Info("dispatch run complete", map[string]interface{}{
		"due":         report.Due,
		"sent":        report.Sent,
		"rescheduled": report.Rescheduled,
		"failed":      report.Failed,
		"invalid":     report.Invalid,
	})
	return report, nil
}

func (h *Handler) dispatchOne(ctx context.Context, r *models.DueReminder, now time.Time, report *RunReport) {
	payload := h.buildPayload(r)

	if result := validation.ValidateDocument(payloadDocument(payload), h.registry.PayloadSchema); !result.Valid {
		// Left PENDING on purpose: a contract violation is a data problem,
		// not a delivery problem, and gets retried once the data is fixed.
		report.Invalid++
		metrics.RemindersDispatched.WithLabelValues("invalid").Inc()
		h.logger.Error("payload failed contract validation", map[string]interface{}{
			"reminderId": r.ID,
			"errors":     result.ErrorSummary(),
		})
		return
	}

	res := h.notifier.SendNotification(ctx, payload)
	if res.Success {
		if err := h.reminders.MarkSent(ctx, r.ID, now); err != nil {
			h.logger.Error("mark sent failed", map[string]interface{}{
				"reminderId": r.ID,
				"error":      err.Error(),
			})
			return
		}
		report.Sent++
		metrics.RemindersDispatched.WithLabelValues("sent").Inc()
		h.audit(ctx, r, "sent", res, r.RetryCount)
		return
	}

	// Re-read the count instead of trusting the row loaded at batch start,
	// in case an overlapping manual run already bumped it.
	retryCount, err := h.reminders.GetRetryCount(ctx, r.ID)
	if err != nil {
		h.logger.Error("retry count lookup failed", map[string]interface{}{
			"reminderId": r.ID,
			"error":      err.Error(),
		})
		return
	}

	if retryCount >= h.config.MaxRetries {
		if err := h.reminders.MarkFailed(ctx, r.ID, maxRetryReason); err != nil {
			h.logger.Error("mark failed failed", map[string]interface{}{
				"reminderId": r.ID,
				"error":      err.Error(),
			})
			return
		}
		report.Failed++
		metrics.RemindersDispatched.WithLabelValues("failed").Inc()
		h.logger.Error("reminder exhausted retries", map[string]interface{}{
			"reminderId": r.ID,
			"retryCount": retryCount,
			"errors":     res.Errors,
		})
		h.audit(ctx, r, "failed", res, retryCount)
		return
	}

	if err := h.reminders.Reschedule(ctx, r.ID, retryCount+1, now.Add(h.config.RetryBackoff)); err != nil {
		h.logger.Error("reschedule failed", map[string]interface{}{
			"reminderId": r.ID,
			"error":      err.Error(),
		})
		return
	}
	report.Rescheduled++
	metrics.RemindersDispatched.WithLabelValues("rescheduled").Inc()
	h.logger.Warn("delivery failed, rescheduled", map[string]interface{}{
		"reminderId": r.ID,
		"retryCount": retryCount + 1,
		"nextAt":     now.Add(h.config.RetryBackoff),
	})
	h.audit(ctx, r, "rescheduled", res, retryCount+1)
}

func (h *Handler) buildPayload(r *models.DueReminder) *notify.Payload {
	dueDate := r.EventDueDate.Format("2006-01-02")

	subject := "Compliance reminder: " + r.EventTitle
	message := r.EventTitle + " is due on " + dueDate + "."
	if tpl, ok := h.registry.TemplateFor(string(r.Offset)); ok {
		vars := map[string]string{
			"title":   r.EventTitle,
			"dueDate": dueDate,
		}
		subject = renderTemplate(tpl.Subject, vars)
		message = renderTemplate(tpl.Body, vars)
	}

	return &notify.Payload{
		ReminderID: r.ID,
		EventID:    r.EventID,
		EmployerID: r.EmployerID,
		Title:      r.EventTitle,
		Subject:    subject,
		Message:    message,
		DueDate:    dueDate,
		Offset:     r.Offset,
		Channels:   r.Channels,
	}
}

// payloadDocument flattens the payload into the shape the contract schema
// validates.
func payloadDocument(p *notify.Payload) map[string]interface{} {
	channels := make([]interface{}, len(p.Channels))
	for i, c := range p.Channels {
		channels[i] = string(c)
	}
	return map[string]interface{}{
		"reminderId": p.ReminderID,
		"eventId":    p.EventID,
		"employerId": p.EmployerID,
		"title":      p.Title,
		"message":    p.Message,
		"dueDate":    p.DueDate,
		"offsetType": string(p.Offset),
		"channels":   channels,
	}
}

func renderTemplate(tpl string, vars map[string]string) string {
	out := tpl
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return out
}

func (h *Handler) audit(ctx context.Context, r *models.DueReminder, outcome string, res *notify.Result, retryCount int) {
	if h.auditor == nil {
		return
	}
	err := h.auditor.Record(ctx, &notify.DeliveryAudit{
		ReminderID: r.ID,
		EventID:    r.EventID,
		EmployerID: r.EmployerID,
		Offset:     r.Offset,
		Outcome:    outcome,
		Channels:   res.Channels,
		Errors:     res.Errors,
		RetryCount: retryCount,
		AttemptAt:  time.Now().UTC(),
	})
	if err != nil {
		h.logger.Warn("delivery audit failed", map[string]interface{}{
			"reminderId": r.ID,
			"error":      err.Error(),
		})
	}
}
