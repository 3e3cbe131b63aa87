package util

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const refreshTokenBytes = 32

// HashOTP binds a code to the identifier it was issued for.
func HashOTP(secret, identifier, code string) string {
	return hmacHex(secret, identifier+":"+code)
}

func HashToken(secret, token string) string {
	return hmacHex(secret, token)
}

// HashesEqual compares two hex digests in constant time.
func HashesEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}

func GenerateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hmacHex(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
