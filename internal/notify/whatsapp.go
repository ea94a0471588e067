// internal/notify/whatsapp.go
package notify

import (
	"context"
	"database/sql"
	"fmt"

	"compliance-calendar/internal/common/httpclient"
	"compliance-calendar/internal/models"
)

// WhatsAppSender delivers reminders through a WhatsApp Business API
// endpoint. The recipient phone number comes from the employers table.
type WhatsAppSender struct {
	client  *httpclient.Client
	db      *sql.DB
	baseURL string
	token   string
}

func NewWhatsAppSender(client *httpclient.Client, db *sql.DB, baseURL, token string) *WhatsAppSender {
	return &WhatsAppSender{client: client, db: db, baseURL: baseURL, token: token}
}

func (s *WhatsAppSender) Channel() models.ReminderChannel {
	return models.ChannelWhatsApp
}

type whatsAppMessage struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             whatsAppTextBody `json:"text"`
}

type whatsAppTextBody struct {
	Body string `json:"body"`
}

func (s *WhatsAppSender) Send(ctx context.Context, p *Payload) error {
	_, phone, err := lookupEmployerContact(ctx, s.db, p.EmployerID)
	if err != nil {
		return err
	}
	if phone == "" {
		return fmt.Errorf("employer %s has no phone number", p.EmployerID)
	}

	msg := whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             whatsAppTextBody{Body: p.Subject + "\n" + p.Message},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + s.token,
	}

	_, err = s.client.PostJSON(ctx, s.baseURL+"/messages", headers, msg)
	return err
}
