package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenrnd/server/internal/auth"
	"github.com/greenrnd/server/internal/logging"
	"github.com/greenrnd/server/internal/metrics"
	"github.com/greenrnd/server/internal/model"
	"github.com/greenrnd/server/internal/repo"
)

// DefaultCodeTTL is how long an issued verification code can be redeemed
const DefaultCodeTTL = 300 * time.Second

// Match is the lookup result; contact fields are never exposed
type Match struct {
	ID     string `json:"id"`
	Access bool   `json:"access"`
}

// Options tunes the service; zero values fall back to defaults
type Options struct {
	CodeTTL time.Duration
	Now     func() time.Time
}

// Service implements purchaser lookup and the grant-access flow
type Service struct {
	purchasers repo.PurchaserRepo
	codes      auth.CodeGenerator
	notifier   auth.Notifier
	logger     *zerolog.Logger
	ttl        time.Duration
	now        func() time.Time
}

// NewService creates a new directory service
func NewService(
	purchasers repo.PurchaserRepo,
	codes auth.CodeGenerator,
	notifier auth.Notifier,
	logger *zerolog.Logger,
	opts Options,
) *Service {
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = DefaultCodeTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		purchasers: purchasers,
		codes:      codes,
		notifier:   notifier,
		logger:     logger,
		ttl:        opts.CodeTTL,
		now:        opts.Now,
	}
}

// FindPurchaser returns the first purchaser whose email or phone matches.
// At least one of email and phone must be non-empty.
func (s *Service) FindPurchaser(ctx context.Context, email, phone string) (Match, error) {
	if email == "" && phone == "" {
		return Match{}, fmt.Errorf("email or phone_number is required: %w", model.ErrInvalidArgument)
	}
	p, err := s.purchasers.FindByContact(ctx, email, phone)
	if err != nil {
		return Match{}, err
	}
	return Match{ID: p.ID, Access: p.Access}, nil
}

// IssueVerificationCode opens a grant-access attempt for the purchaser,
// replacing any code that is still pending.
func (s *Service) IssueVerificationCode(ctx context.Context, purchaserID string) error {
	code, err := s.codes.Generate()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.ttl)

	// delivery happens inside the update so a failed send stores nothing
	err = s.purchasers.Update(ctx, purchaserID, func(p *model.Purchaser) error {
		if err := s.notifier.SendCode(ctx, *p, code, expiresAt); err != nil {
			return fmt.Errorf("deliver code: %w", err)
		}
		p.SetPendingCode(code, expiresAt)
		return nil
	})
	if err != nil {
		return err
	}
	metrics.IncCodesIssued()
	return nil
}

// VerifyAccessCode redeems a pending code. On success the purchaser gains
// access and the code is consumed. Expiry is checked here only; stale codes
// stay stored until reissued or redeemed.
func (s *Service) VerifyAccessCode(ctx context.Context, purchaserID, code string) error {
	now := s.now()
	err := s.purchasers.Update(ctx, purchaserID, func(p *model.Purchaser) error {
		if !p.HasPendingCode() {
			return fmt.Errorf("no pending code: %w", model.ErrForbidden)
		}
		if !auth.CodesEqual(*p.VerificationCode, code) {
			return fmt.Errorf("code mismatch: %w", model.ErrForbidden)
		}
		if now.After(*p.CodeExpiresAt) {
			return fmt.Errorf("code expired: %w", model.ErrForbidden)
		}
		p.Access = true
		p.ClearPendingCode()
		return nil
	})

	l := logging.With(ctx, s.logger)
	switch {
	case err == nil:
		metrics.IncRedeem(metrics.RedeemGranted)
		l.Info().Str("purchaser_id", purchaserID).Msg("access granted")
	case errors.Is(err, model.ErrNotFound):
		metrics.IncRedeem(metrics.RedeemNotFound)
	case errors.Is(err, model.ErrForbidden):
		metrics.IncRedeem(metrics.RedeemInvalid)
		l.Debug().Str("purchaser_id", purchaserID).Err(err).Msg("redeem rejected")
	}
	return err
}
