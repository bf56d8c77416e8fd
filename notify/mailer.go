package notify

import (
	"fmt"
	"net/smtp"

	"github.com/starvisioncare/clinic-backend/config"
)

// Mailer sends HTML email to a single recipient.
type Mailer interface {
	SendHTMLEmail(to, subject, htmlBody string) error
}

const htmlEmailFormat = "To: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s\r\n"

// SMTPMailer delivers mail directly over SMTP.
type SMTPMailer struct {
	Host   string
	Port   uint16
	Sender string
	Auth   smtp.Auth
}

// NewSMTPMailer builds an SMTPMailer from the application config.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.EmailUser != "" {
		auth = smtp.PlainAuth("", cfg.EmailUser, cfg.EmailPass, cfg.SMTPHost)
	}
	return &SMTPMailer{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		Sender: cfg.EmailUser,
		Auth:   auth,
	}
}

func (m *SMTPMailer) SendHTMLEmail(to, subject, htmlBody string) error {
	if m.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	msg := []byte(fmt.Sprintf(htmlEmailFormat, to, subject, htmlBody))
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	if err := smtp.SendMail(addr, m.Auth, m.Sender, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s via %s: %w", to, m.Host, err)
	}
	return nil
}
