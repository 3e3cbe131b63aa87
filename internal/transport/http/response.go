package http

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every auth API response.
type Envelope struct {
	Success    bool       `json:"success" example:"true"`
	StatusCode int        `json:"statusCode" example:"200"`
	Message    string     `json:"message" example:"OTP sent successfully"`
	Data       any        `json:"data,omitempty"`
	Error      *ErrorBody `json:"error,omitempty"`
	Timestamp  string     `json:"timestamp" example:"2025-01-10T12:00:00Z"`
	Path       string     `json:"path" example:"/auth/send-otp"`
}

type ErrorBody struct {
	Code string `json:"code" example:"INVALID_OR_EXPIRED_OTP"`
}

const (
	codeInvalidInput     = "INVALID_INPUT"
	codeUserNotFound     = "USER_NOT_FOUND"
	codeDeliveryFailed   = "OTP_DELIVERY_FAILED"
	codeInvalidOTP       = "INVALID_OR_EXPIRED_OTP"
	codeAttemptsExceeded = "OTP_ATTEMPTS_EXCEEDED"
	codeUnauthorized     = "UNAUTHORIZED"
	codeRateLimited      = "RATE_LIMITED"
	codeInternal         = "INTERNAL_ERROR"
)

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{
		Success:    true,
		StatusCode: status,
		Message:    message,
		Data:       data,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request().URL.Path,
	})
}

func respondError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, Envelope{
		Success:    false,
		StatusCode: status,
		Message:    message,
		Error:      &ErrorBody{Code: code},
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Path:       c.Request().URL.Path,
	})
}
