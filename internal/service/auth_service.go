package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/metrics"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/repository/ports"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/util"
)

const (
	defaultOTPExpiry       = 5 * time.Minute
	defaultOTPLength       = 4
	defaultOTPMaxAttempts  = 5
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

type OTPSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

type TokenIssuer interface {
	Generate(userID int64, phone, email string) (string, time.Time, error)
}

type AuthConfig struct {
	OTPSecret       string
	OTPExpiry       time.Duration
	OTPLength       int
	OTPMaxAttempts  int
	RefreshTokenTTL time.Duration
	// FixedCode replaces random codes outside production when set.
	FixedCode  string
	Production bool
}

type OTPIssueResult struct {
	Phone     string `json:"phone"`
	ExpiresIn string `json:"expiresIn"`
	RequestID int64  `json:"requestId"`
}

type UserView struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
	Phone string  `json:"phone"`
}

type LoginResult struct {
	User                 UserView  `json:"user"`
	AccessToken          string    `json:"accessToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
	RefreshToken         string    `json:"refreshToken"`
	SessionID            uuid.UUID `json:"-"`
}

type AuthService struct {
	users    ports.UserRepository
	otps     ports.OTPRepository
	sessions ports.SessionRepository
	sender   OTPSender
	tokens   TokenIssuer
	cfg      AuthConfig
	logger   *zap.Logger

	now          func() time.Time
	generateCode func(digits int) (string, error)
}

func NewAuthService(
	users ports.UserRepository,
	otps ports.OTPRepository,
	sessions ports.SessionRepository,
	sender OTPSender,
	tokens TokenIssuer,
	cfg AuthConfig,
	logger *zap.Logger,
) *AuthService {
	if cfg.OTPExpiry <= 0 {
		cfg.OTPExpiry = defaultOTPExpiry
	}
	if cfg.OTPLength <= 0 {
		cfg.OTPLength = defaultOTPLength
	}
	if cfg.OTPMaxAttempts <= 0 {
		cfg.OTPMaxAttempts = defaultOTPMaxAttempts
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = defaultRefreshTokenTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:        users,
		otps:         otps,
		sessions:     sessions,
		sender:       sender,
		tokens:       tokens,
		cfg:          cfg,
		logger:       logger.Named("auth"),
		now:          time.Now,
		generateCode: util.GenerateNumericOTP,
	}
}

// IssueOTP sends a fresh login code to an active user's phone. The request
// row is written only after the gateway accepted the message.
func (s *AuthService) IssueOTP(ctx context.Context, phone string, meta domain.RequestMeta) (*OTPIssueResult, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}

	user, err := s.users.FindActiveByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			metrics.OTPIssuedTotal.WithLabelValues(metrics.ResultNotFound).Inc()
			return nil, fmt.Errorf("%w with this phone number", ErrUserNotFound)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		metrics.OTPIssuedTotal.WithLabelValues(metrics.ResultUndelivered).Inc()
		s.logger.Warn("otp delivery failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	now := s.now()
	req, err := s.otps.Create(ctx, &domain.OTPRequest{
		UserID:      user.ID,
		Identifier:  phone,
		Purpose:     domain.OTPPurposeWebLogin,
		Channel:     domain.OTPChannelSMS,
		OTPHash:     util.HashOTP(s.cfg.OTPSecret, phone, code),
		ExpiresAt:   now.Add(s.cfg.OTPExpiry),
		MaxAttempts: s.cfg.OTPMaxAttempts,
		IPAddress:   meta.IPPtr(),
		UserAgent:   meta.UserAgentPtr(),
	})
	if err != nil {
		return nil, fmt.Errorf("store otp request: %w", err)
	}

	metrics.OTPIssuedTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.Info("otp issued", zap.Int64("user_id", user.ID), zap.Int64("request_id", req.ID))

	return &OTPIssueResult{
		Phone:     phone,
		ExpiresIn: fmt.Sprintf("%d minutes", int(s.cfg.OTPExpiry/time.Minute)),
		RequestID: req.ID,
	}, nil
}

// ResendOTP issues another code. Earlier requests are left in place but the
// newest one is the only one VerifyOTP will match.
func (s *AuthService) ResendOTP(ctx context.Context, phone string, meta domain.RequestMeta) (*OTPIssueResult, error) {
	return s.IssueOTP(ctx, phone, meta)
}

func (s *AuthService) VerifyOTP(ctx context.Context, phone, code string, meta domain.RequestMeta) (*LoginResult, error) {
	phone = strings.TrimSpace(phone)
	code = util.DigitsOnly(code)
	if phone == "" || code == "" {
		return nil, fmt.Errorf("%w: phone and otp are required", ErrInvalidInput)
	}

	user, err := s.users.FindActiveByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultNotFound).Inc()
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	now := s.now()
	req, err := s.otps.FindLatestActive(ctx, phone, domain.OTPPurposeWebLogin, now)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
			return nil, ErrInvalidOrExpiredOTP
		}
		return nil, fmt.Errorf("find otp request: %w", err)
	}
	if req.AttemptsExhausted() {
		metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultExceeded).Inc()
		return nil, ErrOTPAttemptsExceeded
	}

	ok := util.HashesEqual(util.HashOTP(s.cfg.OTPSecret, phone, code), req.OTPHash)

	attempt := &domain.OTPAttempt{
		OTPRequestID: req.ID,
		UserID:       user.ID,
		Identifier:   phone,
		Purpose:      domain.OTPPurposeWebLogin,
		Succeeded:    ok,
		IPAddress:    meta.IPPtr(),
		UserAgent:    meta.UserAgentPtr(),
	}
	applied, err := s.otps.RecordAttempt(ctx, attempt, now)
	if err != nil {
		return nil, fmt.Errorf("record otp attempt: %w", err)
	}
	if !applied {
		metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultRaceLost).Inc()
		return nil, ErrInvalidOrExpiredOTP
	}
	if !ok {
		metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, ErrInvalidOrExpiredOTP
	}
	metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()

	result, err := s.startSession(ctx, user, meta, now)
	if err != nil {
		return nil, err
	}
	s.logger.Info("otp login succeeded", zap.Int64("user_id", user.ID), zap.Int64("request_id", req.ID))
	return result, nil
}

// CurrentUser resolves the subject of a verified access token.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*UserView, error) {
	user, err := s.users.FindActiveByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	view := toUserView(user)
	return &view, nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User, meta domain.RequestMeta, now time.Time) (*LoginResult, error) {
	accessToken, accessExpiresAt, err := s.tokens.Generate(user.ID, user.Phone, user.EmailOrEmpty())
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := util.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	session, err := s.sessions.Create(ctx, &domain.Session{
		ID:               uuid.New(),
		UserID:           user.ID,
		RefreshTokenHash: util.HashToken(s.cfg.OTPSecret, refreshToken),
		ExpiresAt:        now.Add(s.cfg.RefreshTokenTTL),
		IPAddress:        meta.IPPtr(),
		UserAgent:        meta.UserAgentPtr(),
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	metrics.SessionsCreatedTotal.Inc()

	return &LoginResult{
		User:                 toUserView(user),
		AccessToken:          accessToken,
		AccessTokenExpiresAt: accessExpiresAt,
		RefreshToken:         refreshToken,
		SessionID:            session.ID,
	}, nil
}

func (s *AuthService) newCode() (string, error) {
	if !s.cfg.Production && s.cfg.FixedCode != "" {
		return s.cfg.FixedCode, nil
	}
	return s.generateCode(s.cfg.OTPLength)
}

func toUserView(user *domain.User) UserView {
	return UserView{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}
}
