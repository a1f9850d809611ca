// Package pairing generates the human-readable code the operator enters on
// the controller to pair it with this bridge.
package pairing

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const digits = "0123456789"

var codePattern = regexp.MustCompile(`^[A-Z]{3}-[0-9]{3}$`)

// NewCode returns a fresh LLL-DDD pairing code: three uppercase letters, a
// dash, three decimal digits.
func NewCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("pairing code entropy: %w", err)
	}
	code := []byte{
		letters[int(buf[0])%len(letters)],
		letters[int(buf[1])%len(letters)],
		letters[int(buf[2])%len(letters)],
		'-',
		digits[int(buf[3])%len(digits)],
		digits[int(buf[4])%len(digits)],
		digits[int(buf[5])%len(digits)],
	}
	return string(code), nil
}

// Valid reports whether s has the LLL-DDD shape.
func Valid(s string) bool {
	return codePattern.MatchString(s)
}
