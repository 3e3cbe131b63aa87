package util

import (
	"crypto/rand"
	"math/big"
	"strings"
)

func GenerateNumericOTP(digits int) (string, error) {
	if digits <= 0 {
		digits = 4
	}
	var builder strings.Builder
	builder.Grow(digits)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		builder.WriteByte(byte('0' + n.Int64()))
	}
	return builder.String(), nil
}

// DigitsOnly drops every non-digit rune, so "12 34" and "1-2-3-4" both become "1234".
func DigitsOnly(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
