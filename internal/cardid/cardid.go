package cardid

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Len is the fixed width of a card ID.
const Len = 8

var ErrExhausted = fmt.Errorf("no unique card id after retries")

// Generate returns a zero-padded 8-digit decimal card ID drawn uniformly
// from [00000001, 99999999]. The all-zero string is not a valid ID.
func Generate() (string, error) {
	for {
		id, err := randomDigits(Len)
		if err != nil {
			return "", fmt.Errorf("rand: %w", err)
		}
		if id != strings.Repeat("0", Len) {
			return id, nil
		}
	}
}

// GenerateUnique retries Generate until exists reports the candidate as
// unused, up to maxRetries additional attempts. The bound makes exhaustion
// of the id space an explicit failure instead of a livelock.
func GenerateUnique(maxRetries int, exists func(string) (bool, error)) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	for i := 0; i <= maxRetries; i++ {
		id, err := Generate()
		if err != nil {
			return "", err
		}
		if exists == nil {
			return id, nil
		}
		used, err := exists(id)
		if err != nil {
			return "", fmt.Errorf("exists callback: %w", err)
		}
		if !used {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w (max retries %d)", ErrExhausted, maxRetries)
}

// randomDigits produces count decimal digits using rejection sampling to
// avoid modulo bias: only bytes < 250 are accepted before reducing mod 10.
func randomDigits(count int) (string, error) {
	if count <= 0 {
		return "", nil
	}
	const threshold = 250 // 256 - (256 % 10)
	var sb strings.Builder
	sb.Grow(count)
	buf := make([]byte, 64)
	for sb.Len() < count {
		n, err := rand.Read(buf)
		if err != nil {
			return "", err
		}
		for i := 0; i < n && sb.Len() < count; i++ {
			b := buf[i]
			if b < threshold {
				sb.WriteByte('0' + (b % 10))
			}
		}
	}
	return sb.String(), nil
}

// IsValid reports whether s is exactly 8 ASCII digits.
func IsValid(s string) bool {
	if len(s) != Len {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
