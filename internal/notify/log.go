package notify

import (
	"context"

	"github.com/dvloznov/family-finance/internal/logger"
)

// LogTransport writes emails to the request logger instead of sending them.
// It is the default for local development.
type LogTransport struct{}

// Deliver implements Transport.
func (LogTransport) Deliver(ctx context.Context, email Email) error {
	log := logger.FromContext(ctx)
	log.Info().
		Str("to", email.To).
		Str("subject", email.Subject).
		Int("body_bytes", len(email.HTML)).
		Msg("Email (log transport)")
	return nil
}
