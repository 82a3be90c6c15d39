package security

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// Verification codes are valid for 24 hours from issuance.
const VerificationCodeTTL = 24 * time.Hour

// NewVerificationCode returns a 6-digit numeric code, uniformly random in
// [100000, 999999].
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))

	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
