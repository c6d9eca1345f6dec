// Package email sends transactional mail to riders. Delivery failures
// are logged and swallowed by callers: mail is best-effort and must
// never fail a lifecycle operation.
package email

import (
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/chennai-transit/service-pass/internal/config"
)

// Mailer is the outbound mail contract used by the services and the
// expiry worker.
type Mailer interface {
	SendDecision(to, riderName, passNumber, status, note string) error
	SendActivation(to, riderName, passNumber string, validUntil time.Time) error
	SendExpiry(to, riderName, passNumber string, expiredAt time.Time) error
}

// SMTPMailer sends mail through a configured SMTP relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPMailer creates a mailer for the given SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(15 * time.Second),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// SendDecision notifies the rider of an admin decision.
func (m *SMTPMailer) SendDecision(to, riderName, passNumber, status, note string) error {
	subject := fmt.Sprintf("Bus pass application %s: %s", passNumber, status)
	body := fmt.Sprintf("Dear %s,\n\nYour bus pass application %s has been %s.", riderName, passNumber, status)
	if note != "" {
		body += "\n\nNote: " + note
	}
	if status == "approved" {
		body += "\n\nPlease complete the payment to activate your pass."
	}
	body += "\n\nChennai Transit\n"
	return m.send(to, subject, body)
}

// SendActivation confirms a paid, activated pass.
func (m *SMTPMailer) SendActivation(to, riderName, passNumber string, validUntil time.Time) error {
	subject := fmt.Sprintf("Bus pass %s activated", passNumber)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour bus pass %s is now active and valid until %s.\n\nChennai Transit\n",
		riderName, passNumber, validUntil.Format("2 January 2006"),
	)
	return m.send(to, subject, body)
}

// SendExpiry is the one-time expiry notice.
func (m *SMTPMailer) SendExpiry(to, riderName, passNumber string, expiredAt time.Time) error {
	subject := fmt.Sprintf("Bus pass %s expired", passNumber)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour bus pass %s expired on %s. You can renew it within 30 days of expiry.\n\nChennai Transit\n",
		riderName, passNumber, expiredAt.Format("2 January 2006"),
	)
	return m.send(to, subject, body)
}
