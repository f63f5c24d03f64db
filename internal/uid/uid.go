// Package uid generates the human-readable resume identifiers handed to
// funnel visitors. Format XXXXX-XXXXX over an alphabet with the ambiguous
// characters (0, 1, I, L, O) removed.
package uid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var uidPattern = regexp.MustCompile(`^[A-HJKMNP-Z2-9]{5}-[A-HJKMNP-Z2-9]{5}$`)

// Generate returns a new resume identifier, e.g. "F3K8Q-2JQ9W". Each
// character is drawn uniformly; a byte-mod draw would skew toward the
// start of the alphabet. Collision detection is the caller's
// responsibility (checked against the CRM before assignment).
func Generate() (string, error) {
	max := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	b.Grow(11)
	for i := 0; i < 10; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate uid: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
		if i == 4 {
			b.WriteByte('-')
		}
	}
	return b.String(), nil
}

// IsValid reports whether uid matches the expected format
func IsValid(uid string) bool {
	return uidPattern.MatchString(uid)
}

// Normalize uppercases a user-supplied uid and strips whitespace
func Normalize(uid string) string {
	return strings.ToUpper(strings.Join(strings.Fields(uid), ""))
}
