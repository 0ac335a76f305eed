// Package mailer wraps SMTP delivery behind a one-method client.
package mailer

import (
	"fmt"

	mail "github.com/wneessen/go-mail"

	"github.com/mendo-app/backend/internal/config"
)

// Mailer sends plain-text email through the configured SMTP relay.
type Mailer struct {
	cfg config.SMTPConfig
}

// New returns a Mailer for the given SMTP settings.
func New(cfg config.SMTPConfig) *Mailer { return &Mailer{cfg: cfg} }

// Send delivers one message. A new connection is dialed per send; the
// notification volume of the platform does not justify connection pooling.
func (m *Mailer) Send(to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
