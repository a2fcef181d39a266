package notifications

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/procureline/procureline-backend/pkg/config"
	"github.com/procureline/procureline-backend/pkg/logger"
)

// Mailer delivers one plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends via an authenticated SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer builds a mailer for the configured relay.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send delivers the message through the relay.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.FromAddress,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	return smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{to}, []byte(msg))
}

// LogMailer records messages instead of delivering them. Used when no SMTP
// relay is configured, which keeps local and test environments offline.
type LogMailer struct {
	logg *logger.Logger
}

// NewLogMailer builds the log-only mailer.
func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

// Send logs the message envelope.
func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.logg != nil {
		logCtx := m.logg.WithFields(ctx, map[string]any{
			"to":      to,
			"subject": subject,
		})
		m.logg.Info(logCtx, "mail.skipped_delivery")
	}
	return nil
}
