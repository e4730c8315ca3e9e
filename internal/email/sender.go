// Package email delivers match notification emails over SMTP. Delivery is
// disabled by default; the disabled sender logs instead of sending so the
// rest of the notification pipeline behaves identically in every
// environment.
package email

import (
	"context"
	"fmt"

	mail "github.com/wneessen/go-mail"

	"leadpilot_backend/platform/config"
	"leadpilot_backend/platform/logger"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends through a configured SMTP relay using go-mail.
type SMTPSender struct {
	client   *mail.Client
	fromAddr string
	fromName string
	log      *logger.Logger
}

// NewSender returns an SMTP sender when email is enabled, otherwise a
// logging no-op.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return &disabledSender{log: log}, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.GetSMTPUsername()),
		mail.WithPassword(cfg.GetSMTPPassword()),
	}
	client, err := mail.NewClient(cfg.GetSMTPHost(), opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{
		client:   client,
		fromAddr: cfg.GetEmailFromAddress(),
		fromName: cfg.GetEmailFromName(),
		log:      log,
	}, nil
}

// Send delivers one message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddr); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.log.Info("email sent", "to", to, "subject", subject)
	return nil
}

// disabledSender logs what would have been sent.
type disabledSender struct {
	log *logger.Logger
}

func (s *disabledSender) Send(_ context.Context, to, subject, _ string) error {
	s.log.Debug("email delivery disabled", "to", to, "subject", subject)
	return nil
}
