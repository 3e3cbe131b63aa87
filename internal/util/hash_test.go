package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func TestHashOTPMatchesKeyedDigest(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("otp-secret"))
	mac.Write([]byte("9198248449609:1234"))
	want := hex.EncodeToString(mac.Sum(nil))

	if got := HashOTP("otp-secret", "9198248449609", "1234"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestHashOTPBindsIdentifier(t *testing.T) {
	a := HashOTP("s", "9000000001", "1234")
	b := HashOTP("s", "9000000002", "1234")
	if a == b {
		t.Fatalf("expected different digests for different identifiers")
	}
	if len(a) != 64 || strings.Contains(a, ":") {
		t.Fatalf("unexpected digest %q", a)
	}
	if !HashesEqual(a, HashOTP("s", "9000000001", "1234")) {
		t.Fatalf("expected equal digests to compare equal")
	}
	if HashesEqual(a, b) {
		t.Fatalf("expected different digests to compare unequal")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	first, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken returned error: %v", err)
	}
	second, err := GenerateRefreshToken()
	if err != nil {
		t.Fatalf("GenerateRefreshToken returned error: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	if first == second {
		t.Fatalf("expected distinct tokens")
	}
	if HashToken("s", first) == first {
		t.Fatalf("expected hashed token to differ from raw token")
	}
}
