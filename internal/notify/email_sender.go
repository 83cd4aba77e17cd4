package notify

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"

	"github.com/shanehull/asxreport/internal/config"
	"github.com/shanehull/asxreport/internal/logger"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers rendered reports via SMTP.
type EmailSender struct {
	cfg    config.EmailConfig
	dialer dialer
	logger *zap.Logger
}

// NewEmailSender creates a sender with the given SMTP configuration. Port
// 465 uses implicit TLS, any other port requires STARTTLS.
func NewEmailSender(cfg config.EmailConfig, log *zap.Logger) *EmailSender {
	d := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.Timeout = 10 * time.Second
	if !d.SSL {
		d.StartTLSPolicy = gomail.MandatoryStartTLS
	}
	return &EmailSender{cfg: cfg, dialer: d, logger: logger.OrNop(log)}
}

// Enabled reports whether the SMTP settings are complete.
func (s *EmailSender) Enabled() bool {
	return s.cfg.Enabled()
}

// Send delivers msg to every recipient with the file at attachment attached.
// It is a no-op when the sender is not enabled. ctx is only checked before
// dialling; once the SMTP exchange starts it is bounded by the dialer timeout
// rather than by cancellation.
func (s *EmailSender) Send(ctx context.Context, msg *RenderedMessage, attachment string) error {
	if !s.Enabled() {
		s.logger.Info("email disabled, skipping delivery", zap.String("subject", msg.Subject))
		return nil
	}
	if attachment == "" {
		return errors.New("no report file to attach")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.buildMessage(msg, attachment)
	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("failed to send email",
			zap.Strings("to", s.cfg.ToEmails),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("email sent",
		zap.String("subject", msg.Subject),
		zap.Int("recipients", len(s.cfg.ToEmails)),
	)
	return nil
}

func (s *EmailSender) buildMessage(msg *RenderedMessage, attachment string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", s.cfg.ToEmails...)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}

	m.Attach(attachment, gomail.Rename(filepath.Base(attachment)))
	return m
}
