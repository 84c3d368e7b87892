// File: internal/platform/crypto/generator.go
package crypto

import (
	"crypto/rand"
	"math/big"
)

// passwordAlphabet avoids characters that are easy to misread when the
// generated value is copied from a terminal (0/O, 1/l/I).
const passwordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateSecureRandomString returns a random string of length n drawn
// from a password-safe alphabet. Used by seeding to mint the initial
// admin password when none is configured.
func GenerateSecureRandomString(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
