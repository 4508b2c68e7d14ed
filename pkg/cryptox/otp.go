package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pquerna/otp"
)

var otpSpace = big.NewInt(1_000_000)

// GenerateOTP returns a uniformly random six digit code, zero padded.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to generate otp: %w", err)
	}
	return otp.DigitsSix.Format(int32(n.Int64())), nil // #nosec G115
}
