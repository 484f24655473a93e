package auth

import (
	"context"
	"fmt"

	"github.com/greenrnd/server/internal/model"
)

// HeaderAuthToken is the request header carrying the client token
const HeaderAuthToken = "X-Auth-Token"

// TokenValidator checks the token presented by a client
type TokenValidator interface {
	Validate(ctx context.Context, token string) error
}

// LengthValidator accepts any token of exactly Length bytes.
// It is a placeholder shape check kept for compatibility with existing
// clients and performs no credential verification.
type LengthValidator struct {
	Length int
}

// NewLengthValidator creates a LengthValidator
func NewLengthValidator(length int) *LengthValidator {
	return &LengthValidator{Length: length}
}

// Validate rejects empty tokens and tokens of the wrong length
func (v *LengthValidator) Validate(_ context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("missing token: %w", model.ErrUnauthorized)
	}
	if len(token) != v.Length {
		return fmt.Errorf("token length %d, want %d: %w", len(token), v.Length, model.ErrUnauthorized)
	}
	return nil
}
