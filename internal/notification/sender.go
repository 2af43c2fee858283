package notification

import (
	"context"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"ProjectHub/internal/config"
)

// Sender delivers a single email message. Implementations must honor the
// context deadline and return an error whenever delivery cannot be
// confirmed, because the registration flow rolls back on failure.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(cfg *config.ResendConfig) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(cfg.APIKey),
		from:   cfg.From,
	}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	return err
}

// LogSender writes messages to the log instead of delivering them. Used in
// development when no Resend API key is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to, subject, html string) error {
	s.logger.Info("email suppressed (dev sender)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("html", html),
	)
	return nil
}

// NewSender picks the Resend sender when an API key is configured and the
// log-only sender otherwise.
func NewSender(cfg *config.ResendConfig, logger *zap.Logger) Sender {
	if cfg.APIKey == "" {
		logger.Warn("RESEND_API_KEY not set, outbound email is logged only")
		return NewLogSender(logger)
	}
	return NewResendSender(cfg)
}
