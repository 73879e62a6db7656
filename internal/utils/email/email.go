package email

import (
	"fmt"
	"net/smtp"

	"github.com/hwg121/taskmanagement/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether SMTP is configured.
func (s *Sender) Enabled() bool {
	return s.cfg.SMTPHost != ""
}

// SendWelcome greets a newly registered user. Delivery is best-effort;
// registration never fails because of it.
func (s *Sender) SendWelcome(to, username string) error {
	if !s.Enabled() {
		return nil
	}

	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Welcome to Task Management"

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your account has been created. Log in to start organizing your tasks.\n"+
			"\nBest regards,\nTask Management", username,
	)
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send welcome email to %s: %v", to, err)
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
