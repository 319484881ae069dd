package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/rs/zerolog/log"
)

// Mailer delivers verification codes for the two-step account change
// flow. Real delivery is an external pass-through concern; the default
// implementation only logs.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, field, code string) error
}

// LogMailer writes the verification code to the structured log instead of
// sending mail. Good enough for development and for deployments where an
// operator reads codes out of the log stream.
type LogMailer struct{}

// SendVerificationCode logs the code that would have been mailed.
func (LogMailer) SendVerificationCode(_ context.Context, email, field, code string) error {
	log.Info().
		Str("email", email).
		Str("field", field).
		Str("code", code).
		Msg("Verification code issued")
	return nil
}

// GenerateVerificationCode returns a 6-digit numeric code from a
// cryptographically secure source.
func GenerateVerificationCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the process is in real trouble.
		panic(fmt.Sprintf("failed to read random source: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}
