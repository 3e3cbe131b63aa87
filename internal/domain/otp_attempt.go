package domain

import "time"

// OTPAttempt is the append-only audit record of a single verification try.
type OTPAttempt struct {
	ID           int64     `db:"id" json:"id"`
	OTPRequestID int64     `db:"otp_request_id" json:"otp_request_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Identifier   string    `db:"identifier" json:"identifier"`
	Purpose      string    `db:"purpose" json:"purpose"`
	Succeeded    bool      `db:"succeeded" json:"succeeded"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
