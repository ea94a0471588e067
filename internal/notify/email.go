// internal/notify/email.go
package notify

import (
	"context"
	"database/sql"
	"fmt"

	"compliance-calendar/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the slice of the SES API the email channel needs, defined
// here for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailSender delivers reminders over SES. The recipient address comes from
// the employers table.
type EmailSender struct {
	ses       SESService
	db        *sql.DB
	fromEmail string
}

func NewEmailSender(sesClient SESService, db *sql.DB, fromEmail string) *EmailSender {
	return &EmailSender{ses: sesClient, db: db, fromEmail: fromEmail}
}

func (s *EmailSender) Channel() models.ReminderChannel {
	return models.ChannelEmail
}

func (s *EmailSender) Send(ctx context.Context, p *Payload) error {
	email, _, err := lookupEmployerContact(ctx, s.db, p.EmployerID)
	if err != nil {
		return err
	}
	if email == "" {
		return fmt.Errorf("employer %s has no email address", p.EmployerID)
	}

	_, err = s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(p.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(p.Message)},
				Html: &types.Content{Data: aws.String(p.Message)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	return err
}

func lookupEmployerContact(ctx context.Context, db *sql.DB, employerID string) (string, string, error) {
	var email, phone sql.NullString
	query := `SELECT email, phone FROM employers WHERE id = $1`

	err := db.QueryRowContext(ctx, query, employerID).Scan(&email, &phone)
	if err != nil {
		return "", "", fmt.Errorf("lookup employer %s: %w", employerID, err)
	}
	return email.String, phone.String, nil
}
