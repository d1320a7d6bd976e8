package licensekey

import (
	"crypto/rand"
	"errors"
	"strings"
)

// alphabet excludes nothing: keys are uppercase letters and digits only,
// which survives manual transcription and case-folding storage.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// RandomLength is the number of random characters in a key, excluding
	// the prefix and group separators.
	RandomLength = 16

	groupSize = 4
	separator = "-"
)

var ErrInvalidPrefix = errors.New("license key prefix must be non-empty uppercase alphanumeric")

// Generate mints a new license key with the given plan prefix.
// The result has the form PREFIX-XXXX-XXXX-XXXX-XXXX.
func Generate(prefix string) (string, error) {
	if !validPrefix(prefix) {
		return "", ErrInvalidPrefix
	}

	buf := make([]byte, RandomLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(prefix) + RandomLength + RandomLength/groupSize)
	b.WriteString(prefix)
	for i, c := range buf {
		if i%groupSize == 0 {
			b.WriteString(separator)
		}
		b.WriteByte(alphabet[int(c)%len(alphabet)])
	}

	return b.String(), nil
}

// Normalize prepares a user-supplied key for lookup: trims whitespace and
// upper-cases it so keys survive copy-paste from emails and dashboards.
func Normalize(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func validPrefix(prefix string) bool {
	if prefix == "" {
		return false
	}
	for _, r := range prefix {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
