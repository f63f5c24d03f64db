// Package resetcode implements the short-lived verification codes used
// by the resume-ID recovery flow. Codes are 6 decimal digits, stored only
// as a SHA-256 digest with an absolute expiry, and verified in constant
// time.
package resetcode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// TTL is how long a generated code remains valid
const TTL = 10 * time.Minute

const (
	codeMin = 100000
	codeMax = 999999
)

// Generate returns a new 6-digit verification code drawn uniformly from
// [100000, 999999] using a cryptographically strong source.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", codeMin+n.Int64()), nil
}

// Hash returns the hex-encoded SHA-256 digest of a code. Deterministic,
// so the stored digest can be compared against a later hash of the
// supplied code.
func Hash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Verify hashes the supplied code and compares it to the stored digest in
// constant time. The default equality operator would leak partial-match
// timing.
func Verify(code, storedHash string) bool {
	computed := Hash(code)
	if len(computed) != len(storedHash) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// ExpiresAt returns the expiry for a code generated at now
func ExpiresAt(now time.Time) time.Time {
	return now.Add(TTL)
}

// IsExpired reports whether the expiry has passed at now
func IsExpired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}
