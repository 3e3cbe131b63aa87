package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/service"
)

type AuthUseCase interface {
	IssueOTP(ctx context.Context, phone string, meta domain.RequestMeta) (*service.OTPIssueResult, error)
	ResendOTP(ctx context.Context, phone string, meta domain.RequestMeta) (*service.OTPIssueResult, error)
	VerifyOTP(ctx context.Context, phone, code string, meta domain.RequestMeta) (*service.LoginResult, error)
	CurrentUser(ctx context.Context, userID int64) (*service.UserView, error)
}

type AuthHandler struct {
	auth   AuthUseCase
	logger *zap.Logger
}

type authOp int

const (
	opIssue authOp = iota
	opVerify
	opMe
)

// RegisterAuth mounts the OTP login routes under /auth. Extra middleware
// (rate limiting) applies to the whole group.
func RegisterAuth(e *echo.Echo, auth AuthUseCase, tokens TokenParser, logger *zap.Logger, mw ...echo.MiddlewareFunc) {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &AuthHandler{auth: auth, logger: logger.Named("http.auth")}

	group := e.Group("/auth", mw...)
	group.POST("/send-otp", h.sendOTP)
	group.POST("/resend-otp", h.resendOTP)
	group.POST("/verify-otp", h.verifyOTP)
	group.GET("/me", h.me, RequireAuth(tokens))
}

func (h *AuthHandler) sendOTP(c echo.Context) error {
	return h.issue(c, h.auth.IssueOTP, "OTP sent successfully")
}

func (h *AuthHandler) resendOTP(c echo.Context) error {
	return h.issue(c, h.auth.ResendOTP, "OTP resent successfully")
}

func (h *AuthHandler) issue(c echo.Context, fn func(context.Context, string, domain.RequestMeta) (*service.OTPIssueResult, error), message string) error {
	var req SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, codeInvalidInput, "Invalid request body")
	}
	res, err := fn(c.Request().Context(), req.Phone, requestMeta(c))
	if err != nil {
		return h.fail(c, err, opIssue)
	}
	return respond(c, http.StatusOK, message, SendOTPResponse{
		Phone:     res.Phone,
		ExpiresIn: res.ExpiresIn,
		RequestID: res.RequestID,
	})
}

func (h *AuthHandler) verifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, codeInvalidInput, "Invalid request body")
	}
	res, err := h.auth.VerifyOTP(c.Request().Context(), req.Phone, req.OTP, requestMeta(c))
	if err != nil {
		return h.fail(c, err, opVerify)
	}
	return respond(c, http.StatusOK, "Login successful", VerifyOTPResponse{
		User:         toAuthUser(res.User),
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *AuthHandler) me(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
	}
	user, err := h.auth.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return h.fail(c, err, opMe)
	}
	return respond(c, http.StatusOK, "User fetched successfully", AuthUserResponse{User: toAuthUser(*user)})
}

func (h *AuthHandler) fail(c echo.Context, err error, op authOp) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		if op == opVerify {
			return respondError(c, http.StatusBadRequest, codeInvalidInput, "Phone and otp are required")
		}
		return respondError(c, http.StatusBadRequest, codeInvalidInput, "Phone is required")
	case errors.Is(err, service.ErrUserNotFound):
		if op == opIssue {
			return respondError(c, http.StatusNotFound, codeUserNotFound, "User not found with this phone number")
		}
		return respondError(c, http.StatusNotFound, codeUserNotFound, "User not found")
	case errors.Is(err, service.ErrDeliveryFailed):
		return respondError(c, http.StatusBadGateway, codeDeliveryFailed, "Failed to send OTP. Please try again.")
	case errors.Is(err, service.ErrInvalidOrExpiredOTP):
		return respondError(c, http.StatusUnauthorized, codeInvalidOTP, "Invalid or expired OTP")
	case errors.Is(err, service.ErrOTPAttemptsExceeded):
		return respondError(c, http.StatusUnauthorized, codeAttemptsExceeded, "OTP attempts exceeded")
	default:
		h.logger.Error("auth request failed", zap.String("path", c.Path()), zap.Error(err))
		return respondError(c, http.StatusInternalServerError, codeInternal, "Internal server error")
	}
}
