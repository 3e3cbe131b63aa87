package http

import "github.com/njprem/PropertyHub_APP_BackEnd/internal/service"

// SendOTPRequest is the body of send-otp and resend-otp.
type SendOTPRequest struct {
	Phone string `json:"phone" example:"9198248449609"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" example:"9198248449609"`
	OTP   string `json:"otp" example:"1234"`
}

type SendOTPResponse struct {
	Phone     string `json:"phone" example:"9198248449609"`
	ExpiresIn string `json:"expiresIn" example:"5 minutes"`
	RequestID int64  `json:"requestId" example:"42"`
}

type AuthUser struct {
	ID    int64   `json:"id" example:"7"`
	Name  string  `json:"name" example:"Ravi Kumar"`
	Email *string `json:"email" example:"owner@example.com"`
	Phone string  `json:"phone" example:"9198248449609"`
}

type VerifyOTPResponse struct {
	User         AuthUser `json:"user"`
	AccessToken  string   `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string   `json:"refreshToken" example:"5f1c0b..."`
}

type AuthUserResponse struct {
	User AuthUser `json:"user"`
}

func toAuthUser(u service.UserView) AuthUser {
	return AuthUser{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}
