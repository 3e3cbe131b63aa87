package service

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUserNotFound        = errors.New("user not found")
	ErrDeliveryFailed      = errors.New("failed to send otp")
	ErrInvalidOrExpiredOTP = errors.New("invalid or expired otp")
	ErrOTPAttemptsExceeded = errors.New("otp attempts exceeded")
)
