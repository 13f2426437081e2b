package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSMSSender logs messages instead of sending them, used in ENV=local.
type LogSMSSender struct {
	logger *slog.Logger
}

func (s *LogSMSSender) Send(_ context.Context, phone, message string) error {
	s.logger.Info("sms (local dev)", "to", phone, "message", message)
	return nil
}

// TwilioSender delivers SMS via the Twilio API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func (s *TwilioSender) Send(_ context.Context, phone, message string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.from)
	params.SetBody(message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	return nil
}

// NewSMSSender returns a LogSMSSender for ENV=local, TwilioSender otherwise.
func NewSMSSender(env, accountSID, authToken, from string, logger *slog.Logger) SMSSender {
	if env == "local" {
		return &LogSMSSender{logger: logger}
	}
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}
