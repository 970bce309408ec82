package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid emails messages addressed to a recipient. Staff broadcasts are
// left to other channels.
type SendGrid struct {
	client   *sendgrid.Client
	fromName string
	from     string
}

func NewSendGrid(apiKey, fromName, from string) *SendGrid {
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		from:     from,
	}
}

func (s *SendGrid) Notify(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return nil
	}

	resp, err := s.client.SendWithContext(ctx, s.buildMail(msg))
	if err != nil {
		return fmt.Errorf("while sending mail through SendGrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2XX response while sending mail through SendGrid: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func (s *SendGrid) buildMail(msg Message) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.from))
	message.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail(msg.ToName, msg.To))
	message.AddPersonalizations(personalization)

	message.AddContent(mail.NewContent("text/plain", msg.Body))
	return message
}
