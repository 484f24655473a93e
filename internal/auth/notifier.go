package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenrnd/server/internal/logging"
	"github.com/greenrnd/server/internal/model"
)

// Notifier delivers a freshly issued verification code to the purchaser out of band
type Notifier interface {
	SendCode(ctx context.Context, p model.Purchaser, code string, expiresAt time.Time) error
}

// LogNotifier records that a code was issued without delivering it anywhere.
// The code itself is never logged.
type LogNotifier struct {
	logger *zerolog.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// SendCode logs the masked destination of the code
func (n *LogNotifier) SendCode(ctx context.Context, p model.Purchaser, _ string, expiresAt time.Time) error {
	l := logging.With(ctx, n.logger)
	ev := l.Info().Str("purchaser_id", p.ID).Time("expires_at", expiresAt)
	if p.Email != "" {
		ev = ev.Str("email", logging.MaskContact(p.Email))
	}
	if p.Phone != "" {
		ev = ev.Str("phone", logging.MaskContact(p.Phone))
	}
	ev.Msg("verification code issued")
	return nil
}
