package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

const (
	codeLength = 6
	// DevCode is the fixed code issued in OTP dev mode. Not a secret.
	DevCode = "123456"
)

// CodeGenerator produces verification codes
type CodeGenerator interface {
	Generate() (string, error)
}

// FixedCode always returns the same code; demo/dev only
type FixedCode string

// Generate returns the fixed code
func (c FixedCode) Generate() (string, error) {
	return string(c), nil
}

// RandomCode generates unpredictable 6-digit codes
type RandomCode struct{}

// Generate returns a 6-digit numeric code (100000-999999)
func (RandomCode) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeLength, n.Int64()+100000), nil
}

// CodesEqual compares codes in constant time
func CodesEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
