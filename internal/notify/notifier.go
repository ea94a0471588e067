// internal/notify/notifier.go
package notify

import (
	"context"

	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/common/metrics"
	"compliance-calendar/internal/models"
)

// Payload is the unit of work handed to the notification channels for one
// reminder. The dispatcher validates it against the contract schema before
// any channel is attempted.
type Payload struct {
	ReminderID string                   `json:"reminderId"`
	EventID    string                   `json:"eventId"`
	EmployerID string                   `json:"employerId"`
	Title      string                   `json:"title"`
	Subject    string                   `json:"subject"`
	Message    string                   `json:"message"`
	DueDate    string                   `json:"dueDate"` // ISO 8601
	Offset     models.ReminderOffset    `json:"offsetType"`
	Channels   []models.ReminderChannel `json:"channels"`
}

// Result reports per-channel delivery outcomes for one payload.
type Result struct {
	Success  bool                              `json:"success"`
	Channels map[models.ReminderChannel]bool   `json:"channels"`
	Errors   map[models.ReminderChannel]string `json:"errors,omitempty"`
}

// ChannelSender delivers a payload on exactly one channel.
type ChannelSender interface {
	Channel() models.ReminderChannel
	Send(ctx context.Context, p *Payload) error
}

// Notifier is what the dispatcher consumes; it does not know or care how
// each channel is implemented.
type Notifier interface {
	SendNotification(ctx context.Context, p *Payload) *Result
}

// Service fans a payload out to the configured channel senders. Channel
// failures are caught and logged without aborting the other channels.
type Service struct {
	senders map[models.ReminderChannel]ChannelSender
	logger  logger.Logger
}

func NewService(log logger.Logger, senders ...ChannelSender) *Service {
	byChannel := make(map[models.ReminderChannel]ChannelSender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &Service{
		senders: byChannel,
		logger:  log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// SendNotification attempts every requested channel independently. Success
// means at least one channel delivered.
func (s *Service) SendNotification(ctx context.Context, p *Payload) *Result {
	res := &Result{
		Channels: make(map[models.ReminderChannel]bool, len(p.Channels)),
		Errors:   make(map[models.ReminderChannel]string),
	}

	for _, ch := range p.Channels {
		sender, ok := s.senders[ch]
		if !ok {
			res.Channels[ch] = false
			res.Errors[ch] = "channel not configured"
			metrics.ChannelDeliveries.WithLabelValues(string(ch), "skipped").Inc()
			s.logger.Warn("channel not configured, skipping", map[string]interface{}{
				"channel":    ch,
				"reminderId": p.ReminderID,
			})
			continue
		}

		if err := sender.Send(ctx, p); err != nil {
			res.Channels[ch] = false
			res.Errors[ch] = err.Error()
			metrics.ChannelDeliveries.WithLabelValues(string(ch), "failed").Inc()
			s.logger.Error("channel delivery failed", map[string]interface{}{
				"channel":    ch,
				"reminderId": p.ReminderID,
				"error":      err.Error(),
			})
			continue
		}

		res.Channels[ch] = true
		res.Success = true
		metrics.ChannelDeliveries.WithLabelValues(string(ch), "sent").Inc()
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res
}
