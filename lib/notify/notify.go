// Package notify sends transactional email via Resend.
package notify

import (
	"fmt"

	"crm/lib/models"

	"github.com/resend/resend-go/v3"
	"github.com/sirupsen/logrus"
)

// Client sends booking notifications. A nil Client (missing configuration)
// silently skips sends, so notification stays best-effort.
type Client struct {
	client    *resend.Client
	fromEmail string
	logger    *logrus.Logger
}

// NewClient returns a configured Resend client, or nil if not configured.
func NewClient(apiKey, fromEmail string, logger *logrus.Logger) *Client {
	if apiKey == "" || fromEmail == "" {
		return nil
	}
	return &Client{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		logger:    logger,
	}
}

// SendBookingConfirmation emails the client contact that their inquiry is now
// a booked event. Failures are returned for logging only; promotion never
// rolls back on a failed email.
func (c *Client) SendBookingConfirmation(toEmail string, ev *models.Event) error {
	if c == nil {
		return nil
	}
	if toEmail == "" {
		return fmt.Errorf("notify: no contact email on file")
	}

	subject := fmt.Sprintf("Booking confirmed: %s - %s", ev.Fraternity, ev.School)
	html := fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <div style="background: #2ecc71; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0;">
    <h1 style="margin: 0;">You're booked!</h1>
  </div>
  <div style="padding: 20px; background: #f9f9f9; border-radius: 0 0 8px 8px;">
    <p>Your event on <strong>%s</strong> is confirmed.</p>
    <ul>
      <li>Venue: %s</li>
      <li>Capacity: %d</li>
    </ul>
    <p>We'll reach out about production logistics as the date approaches.</p>
  </div>
</div>`, ev.EventDate.Format("January 2, 2006 at 3:04 PM"), ev.Venue, ev.Capacity)

	params := &resend.SendEmailRequest{
		From:    c.fromEmail,
		To:      []string{toEmail},
		Subject: subject,
		Html:    html,
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("notify: resend send: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"to":       toEmail,
		"event_id": ev.ID,
		"email_id": sent.Id,
	}).Info("Booking confirmation sent")
	return nil
}
