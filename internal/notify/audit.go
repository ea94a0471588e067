// internal/notify/audit.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"compliance-calendar/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// DeliveryAudit is one indexed document per dispatch attempt, searched by
// the back office when investigating delivery issues.
type DeliveryAudit struct {
	ReminderID string                            `json:"reminderId"`
	EventID    string                            `json:"eventId"`
	EmployerID string                            `json:"employerId"`
	Offset     models.ReminderOffset             `json:"offsetType"`
	Outcome    string                            `json:"outcome"` // sent, rescheduled, failed
	Channels   map[models.ReminderChannel]bool   `json:"channels,omitempty"`
	Errors     map[models.ReminderChannel]string `json:"errors,omitempty"`
	RetryCount int                               `json:"retryCount"`
	AttemptAt  time.Time                         `json:"attemptAt"`
}

// Auditor records dispatch attempts. Implementations must be best-effort:
// an indexing failure never changes the dispatch outcome.
type Auditor interface {
	Record(ctx context.Context, audit *DeliveryAudit) error
}

// ESAuditor indexes delivery audits into Elasticsearch.
type ESAuditor struct {
	es    *elasticsearch.Client
	index string
}

func NewESAuditor(es *elasticsearch.Client, index string) *ESAuditor {
	return &ESAuditor{es: es, index: index}
}

func (a *ESAuditor) Record(ctx context.Context, audit *DeliveryAudit) error {
	body, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("marshal delivery audit: %w", err)
	}

	res, err := a.es.Index(
		a.index,
		bytes.NewReader(body),
		a.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index delivery audit: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index delivery audit: %s", res.Status())
	}
	return nil
}

// NoopAuditor is used when Elasticsearch is disabled.
type NoopAuditor struct{}

func (NoopAuditor) Record(context.Context, *DeliveryAudit) error { return nil }
