// Package mailer sends application emails over SMTP.
package mailer

import (
	"fmt"
	"log/slog"
	"os"

	gomail "gopkg.in/gomail.v2"

	"github.com/jobhunterpro/jobhunter/internal/config"
	"github.com/jobhunterpro/jobhunter/internal/models"
)

// sender abstracts gomail's dialer so tests can intercept the send.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer composes and sends one email per application, attaching the CV when
// one is configured.
type Mailer struct {
	cfg    config.MailConfig
	send   sender
	logger *slog.Logger
}

func New(cfg config.MailConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		cfg:    cfg,
		send:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}
}

// Configured reports whether SMTP credentials are present.
func (m *Mailer) Configured() bool {
	return m.cfg.Username != "" && m.cfg.Password != ""
}

// SendApplication emails the cover letter to the recipient. The posting is
// only used for the subject line.
func (m *Mailer) SendApplication(p *models.Posting, app *models.Application) error {
	if !m.Configured() {
		return fmt.Errorf("mailer not configured")
	}
	if app.RecipientEmail == "" {
		return fmt.Errorf("application has no recipient email")
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", app.RecipientEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Application: %s at %s", p.Title, p.Company))
	msg.SetBody("text/plain", app.CoverLetter)

	if m.cfg.CVPath != "" {
		if _, err := os.Stat(m.cfg.CVPath); err == nil {
			msg.Attach(m.cfg.CVPath)
		} else {
			m.logger.Warn("cv attachment missing, sending without it", slog.String("path", m.cfg.CVPath))
		}
	}

	if err := m.send.DialAndSend(msg); err != nil {
		return fmt.Errorf("send application email: %w", err)
	}

	m.logger.Info("application email sent",
		slog.String("to", app.RecipientEmail),
		slog.Int64("posting_id", p.ID),
	)
	return nil
}
