package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/util"
)

const (
	testPhone     = "9198248449609"
	testOTPSecret = "otp-secret"
)

type authFixture struct {
	svc      *AuthService
	users    *memoryUserRepository
	otps     *memoryOTPRepository
	sessions *memorySessionRepository
	sender   *recordingSender
	jwt      *util.JWTManager
	now      time.Time
}

func newAuthFixture(t *testing.T, cfg AuthConfig) *authFixture {
	t.Helper()
	f := &authFixture{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	email := "owner@example.com"
	f.users = newMemoryUserRepository(
		&domain.User{ID: 7, Phone: testPhone, Email: &email, Name: "Ravi", IsActive: true},
		&domain.User{ID: 8, Phone: "9000000008", Name: "Gone", IsActive: false},
	)
	f.otps = newMemoryOTPRepository(func() time.Time { return f.now })
	f.sessions = &memorySessionRepository{}
	f.sender = &recordingSender{}
	f.jwt = util.NewJWTManager("jwt-secret", 24*time.Hour)

	if cfg.OTPSecret == "" {
		cfg.OTPSecret = testOTPSecret
	}
	f.svc = NewAuthService(f.users, f.otps, f.sessions, f.sender, f.jwt, cfg, nil)
	f.svc.now = func() time.Time { return f.now }
	return f
}

// sequenceCodes makes production-mode issuance deterministic.
func (f *authFixture) sequenceCodes(codes ...string) {
	var mu sync.Mutex
	f.svc.generateCode = func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return "", errors.New("no more codes")
		}
		next := codes[0]
		codes = codes[1:]
		return next, nil
	}
}

func TestAuthService_IssueOTP_Development(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{FixedCode: "1234"})

	res, err := f.svc.IssueOTP(ctx, "  "+testPhone+" ", domain.RequestMeta{IP: "10.0.0.1", UserAgent: "curl"})
	if err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}
	if res.Phone != testPhone || res.ExpiresIn != "5 minutes" || res.RequestID == 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if sent := f.sender.last(); sent.code != "1234" || sent.phone != testPhone {
		t.Fatalf("expected fixed code to be sent, got %+v", sent)
	}

	reqs, _ := f.otps.snapshot()
	if len(reqs) != 1 {
		t.Fatalf("expected one otp request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.UserID != 7 || req.Purpose != domain.OTPPurposeWebLogin || req.Channel != domain.OTPChannelSMS {
		t.Fatalf("unexpected request row: %+v", req)
	}
	if req.AttemptCount != 0 || req.MaxAttempts != 5 || req.ConsumedAt != nil {
		t.Fatalf("unexpected counters: %+v", req)
	}
	if !req.ExpiresAt.Equal(f.now.Add(5 * time.Minute)) {
		t.Fatalf("expected expiry now+5m, got %s", req.ExpiresAt)
	}
	if req.IPAddress == nil || *req.IPAddress != "10.0.0.1" {
		t.Fatalf("expected ip to be recorded")
	}
}

func TestAuthService_IssueOTP_StoresOnlyHash(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{Production: true, FixedCode: "1234"})
	f.sequenceCodes("5831")

	if _, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{}); err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}
	if sent := f.sender.last(); sent.code != "5831" {
		t.Fatalf("expected generated code in production, got %q", sent.code)
	}

	reqs, _ := f.otps.snapshot()
	for _, field := range []string{reqs[0].Identifier, reqs[0].Purpose, reqs[0].Channel, reqs[0].OTPHash} {
		if field == "5831" || strings.HasSuffix(field, ":5831") {
			t.Fatalf("plaintext code persisted in %q", field)
		}
	}
	if reqs[0].OTPHash != util.HashOTP(testOTPSecret, testPhone, "5831") {
		t.Fatalf("unexpected otp hash")
	}
}

func TestAuthService_UnknownOrInactivePhone(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{FixedCode: "1234"})

	for _, phone := range []string{"9111111111", "9000000008"} {
		_, err := f.svc.IssueOTP(ctx, phone, domain.RequestMeta{})
		if !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("IssueOTP(%s): expected ErrUserNotFound, got %v", phone, err)
		}
		if !strings.Contains(err.Error(), "with this phone number") {
			t.Fatalf("expected issuance wording, got %q", err.Error())
		}

		_, err = f.svc.VerifyOTP(ctx, phone, "1234", domain.RequestMeta{})
		if !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("VerifyOTP(%s): expected ErrUserNotFound, got %v", phone, err)
		}
	}

	reqs, attempts := f.otps.snapshot()
	if len(reqs) != 0 || len(attempts) != 0 || len(f.sessions.sessions) != 0 || len(f.sender.calls) != 0 {
		t.Fatalf("expected no side effects, got %d requests %d attempts %d sessions %d sends",
			len(reqs), len(attempts), len(f.sessions.sessions), len(f.sender.calls))
	}
}

func TestAuthService_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{FixedCode: "1234"})

	if _, err := f.svc.IssueOTP(ctx, "   ", domain.RequestMeta{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank phone, got %v", err)
	}
	if _, err := f.svc.VerifyOTP(ctx, testPhone, "ab-c", domain.RequestMeta{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for code without digits, got %v", err)
	}
	if _, err := f.svc.VerifyOTP(ctx, "", "1234", domain.RequestMeta{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank phone, got %v", err)
	}
	if len(f.sender.calls) != 0 {
		t.Fatalf("expected no sms for invalid input")
	}
}

func TestAuthService_DeliveryFailureLeavesNoRequest(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{Production: true})
	f.sequenceCodes("4821")
	f.sender.err = errors.New("gateway responded 500")

	_, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if reqs, _ := f.otps.snapshot(); len(reqs) != 0 {
		t.Fatalf("expected no otp request after failed delivery, got %d", len(reqs))
	}

	_, err = f.svc.VerifyOTP(ctx, testPhone, "4821", domain.RequestMeta{})
	if !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected ErrInvalidOrExpiredOTP, got %v", err)
	}
}

func TestAuthService_VerifyOTP_Success(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{FixedCode: "1234", RefreshTokenTTL: 30 * 24 * time.Hour})

	if _, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{}); err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}
	res, err := f.svc.VerifyOTP(ctx, testPhone, " 12 34 ", domain.RequestMeta{IP: "10.0.0.2", UserAgent: "ios"})
	if err != nil {
		t.Fatalf("VerifyOTP returned error: %v", err)
	}

	if res.User.ID != 7 || res.User.Name != "Ravi" || res.User.Phone != testPhone || res.User.Email == nil {
		t.Fatalf("unexpected user view: %+v", res.User)
	}
	claims, err := f.jwt.Parse(res.AccessToken)
	if err != nil {
		t.Fatalf("access token did not parse: %v", err)
	}
	if claims.UserID != 7 || claims.Phone != testPhone || claims.Email != "owner@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if len(f.sessions.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(f.sessions.sessions))
	}
	session := f.sessions.sessions[0]
	if session.RefreshTokenHash == res.RefreshToken || session.RefreshTokenHash != util.HashToken(testOTPSecret, res.RefreshToken) {
		t.Fatalf("expected session to hold the keyed hash of the refresh token")
	}
	if !session.ExpiresAt.Equal(f.now.Add(30 * 24 * time.Hour)) {
		t.Fatalf("unexpected session expiry %s", session.ExpiresAt)
	}
	if session.UserAgent == nil || *session.UserAgent != "ios" {
		t.Fatalf("expected user agent on session")
	}

	reqs, attempts := f.otps.snapshot()
	if reqs[0].ConsumedAt == nil || reqs[0].AttemptCount != 1 {
		t.Fatalf("expected consumed request with one attempt, got %+v", reqs[0])
	}
	if len(attempts) != 1 || !attempts[0].Succeeded {
		t.Fatalf("expected one successful attempt, got %+v", attempts)
	}
}

func TestAuthService_VerifyOTP_AttemptCeiling(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{FixedCode: "1234", OTPMaxAttempts: 5})

	if _, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{}); err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.svc.VerifyOTP(ctx, testPhone, "9999", domain.RequestMeta{}); !errors.Is(err, ErrInvalidOrExpiredOTP) {
			t.Fatalf("attempt %d: expected ErrInvalidOrExpiredOTP, got %v", i+1, err)
		}
	}

	if _, err := f.svc.VerifyOTP(ctx, testPhone, "1234", domain.RequestMeta{}); !errors.Is(err, ErrOTPAttemptsExceeded) {
		t.Fatalf("expected ErrOTPAttemptsExceeded, got %v", err)
	}
	reqs, attempts := f.otps.snapshot()
	if reqs[0].AttemptCount != 5 || reqs[0].State(f.now) != domain.OTPStateExhausted {
		t.Fatalf("expected exhausted request, got %+v", reqs[0])
	}
	if len(attempts) != 5 {
		t.Fatalf("expected exhausted request to record no further attempts, got %d", len(attempts))
	}
}

func TestAuthService_VerifyOTP_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{FixedCode: "1234"})

	if _, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{}); err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}
	f.now = f.now.Add(5 * time.Minute)

	if _, err := f.svc.VerifyOTP(ctx, testPhone, "1234", domain.RequestMeta{}); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected ErrInvalidOrExpiredOTP at expiry, got %v", err)
	}
	reqs, attempts := f.otps.snapshot()
	if reqs[0].AttemptCount != 0 || len(attempts) != 0 {
		t.Fatalf("expected untouched request, got count=%d attempts=%d", reqs[0].AttemptCount, len(attempts))
	}
}

func TestAuthService_VerifyOTP_ConcurrentCorrectCodes(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{FixedCode: "1234", OTPMaxAttempts: 5})

	if _, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{}); err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		other     []error
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.VerifyOTP(ctx, testPhone, "1234", domain.RequestMeta{})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInvalidOrExpiredOTP), errors.Is(err, ErrOTPAttemptsExceeded):
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
	if len(other) != 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if len(f.sessions.sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(f.sessions.sessions))
	}
	_, attempts := f.otps.snapshot()
	succeeded := 0
	for _, a := range attempts {
		if a.Succeeded {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected one successful attempt row, got %d", succeeded)
	}
}

func TestAuthService_EndToEnd_WrongCodesThenReplay(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{Production: true, OTPExpiry: 5 * time.Minute, OTPMaxAttempts: 5})
	f.sequenceCodes("7305")

	issued, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{})
	if err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}

	for i := 0; i < 4; i++ {
		if _, err := f.svc.VerifyOTP(ctx, testPhone, "0000", domain.RequestMeta{}); !errors.Is(err, ErrInvalidOrExpiredOTP) {
			t.Fatalf("wrong attempt %d: expected ErrInvalidOrExpiredOTP, got %v", i+1, err)
		}
	}
	reqs, _ := f.otps.snapshot()
	if reqs[0].ID != issued.RequestID || reqs[0].AttemptCount != 4 {
		t.Fatalf("expected request %d with 4 attempts, got %+v", issued.RequestID, reqs[0])
	}

	res, err := f.svc.VerifyOTP(ctx, testPhone, "7305", domain.RequestMeta{})
	if err != nil {
		t.Fatalf("VerifyOTP with correct code returned error: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", res)
	}
	reqs, _ = f.otps.snapshot()
	if reqs[0].ConsumedAt == nil {
		t.Fatalf("expected request to be consumed")
	}

	if _, err := f.svc.VerifyOTP(ctx, testPhone, "7305", domain.RequestMeta{}); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected replay to fail with ErrInvalidOrExpiredOTP, got %v", err)
	}
}

// Resend leaves the older request unconsumed and unexpired, yet only the
// newest request is matched. This pins the current behaviour.
func TestAuthService_EndToEnd_ResendNewestWins(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{Production: true})
	f.sequenceCodes("1111", "2222")

	if _, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{}); err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}
	if _, err := f.svc.ResendOTP(ctx, testPhone, domain.RequestMeta{}); err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}
	reqs, _ := f.otps.snapshot()
	if len(reqs) != 2 {
		t.Fatalf("expected two otp requests, got %d", len(reqs))
	}

	if _, err := f.svc.VerifyOTP(ctx, testPhone, "1111", domain.RequestMeta{}); !errors.Is(err, ErrInvalidOrExpiredOTP) {
		t.Fatalf("expected first code to be superseded, got %v", err)
	}
	if _, err := f.svc.VerifyOTP(ctx, testPhone, "2222", domain.RequestMeta{}); err != nil {
		t.Fatalf("expected newest code to verify, got %v", err)
	}

	reqs, _ = f.otps.snapshot()
	if reqs[0].ConsumedAt != nil {
		t.Fatalf("expected superseded request to stay unconsumed")
	}
}

func TestAuthService_VerifyOTP_SessionStoreFailure(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{FixedCode: "1234"})
	f.sessions.err = errors.New("connection reset")

	if _, err := f.svc.IssueOTP(ctx, testPhone, domain.RequestMeta{}); err != nil {
		t.Fatalf("IssueOTP returned error: %v", err)
	}
	_, err := f.svc.VerifyOTP(ctx, testPhone, "1234", domain.RequestMeta{})
	if err == nil || errors.Is(err, ErrInvalidOrExpiredOTP) || errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected a plain store error, got %v", err)
	}
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t, AuthConfig{})

	view, err := f.svc.CurrentUser(ctx, 7)
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if view.Phone != testPhone {
		t.Fatalf("unexpected user %+v", view)
	}
	if _, err := f.svc.CurrentUser(ctx, 8); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected inactive user to be hidden, got %v", err)
	}
}
