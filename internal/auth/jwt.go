package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/greenrnd/server/internal/model"
)

// JWTValidator verifies HMAC-signed JWTs issued by an external identity provider
type JWTValidator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name, jwt.SigningMethodHS384.Name, jwt.SigningMethodHS512.Name}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Validate verifies signature and expiry of the token
func (v *JWTValidator) Validate(_ context.Context, tokenString string) error {
	if tokenString == "" {
		return fmt.Errorf("missing token: %w", model.ErrUnauthorized)
	}

	token, err := v.parser.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return fmt.Errorf("failed to parse token: %v: %w", err, model.ErrUnauthorized)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token: %w", model.ErrUnauthorized)
	}
	return nil
}
