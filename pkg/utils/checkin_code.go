package utils

import (
	"crypto/rand"
	"fmt"
)

// Check-in codes exclude easily-confused characters (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// CheckInCodeLength is the length of generated check-in codes.
const CheckInCodeLength = 6

// GenerateCheckInCode returns a random uppercase alphanumeric check-in code.
func GenerateCheckInCode() (string, error) {
	buf := make([]byte, CheckInCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate check-in code: %w", err)
	}

	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
