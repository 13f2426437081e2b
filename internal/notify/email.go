package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogEmailSender logs emails instead of sending them, used in ENV=local.
type LogEmailSender struct {
	logger *slog.Logger
}

func (s *LogEmailSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewEmailSender returns a LogEmailSender for ENV=local, ResendSender otherwise.
func NewEmailSender(env, apiKey, from string, logger *slog.Logger) EmailSender {
	if env == "local" {
		return &LogEmailSender{logger: logger}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}
