// internal/notify/inapp.go
package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"compliance-calendar/internal/common/logger"
	"compliance-calendar/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

// SNSService is the slice of the SNS API the in-app channel needs, defined
// here for mocking.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// InAppSender stores the notification in the in-app inbox table and
// publishes a push fan-out message to SNS. The database insert is the
// authoritative delivery; a push failure is logged but does not fail the
// channel.
type InAppSender struct {
	db       *sql.DB
	sns      SNSService
	topicARN string
	logger   logger.Logger
}

func NewInAppSender(db *sql.DB, snsClient SNSService, topicARN string, log logger.Logger) *InAppSender {
	return &InAppSender{
		db:       db,
		sns:      snsClient,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"channel": "IN_APP"}),
	}
}

func (s *InAppSender) Channel() models.ReminderChannel {
	return models.ChannelInApp
}

func (s *InAppSender) Send(ctx context.Context, p *Payload) error {
	query := `INSERT INTO inapp_notifications (id, employer_id, event_id, reminder_id, subject, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(), p.EmployerID, p.EventID, p.ReminderID,
		p.Subject, p.Message, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store in-app notification: %w", err)
	}

	s.publishPush(ctx, p)
	return nil
}

func (s *InAppSender) publishPush(ctx context.Context, p *Payload) {
	if s.sns == nil || s.topicARN == "" {
		return
	}

	body, err := json.Marshal(map[string]string{
		"employerId": p.EmployerID,
		"eventId":    p.EventID,
		"reminderId": p.ReminderID,
		"subject":    p.Subject,
	})
	if err != nil {
		return
	}

	_, err = s.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		s.logger.Warn("push fan-out failed", map[string]interface{}{
			"reminderId": p.ReminderID,
			"error":      err.Error(),
		})
	}
}
