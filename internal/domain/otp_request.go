package domain

import "time"

const (
	OTPPurposeWebLogin = "WEB_LOGIN"
	OTPChannelSMS      = "SMS"
)

type OTPState string

const (
	OTPStateActive    OTPState = "active"
	OTPStateConsumed  OTPState = "consumed"
	OTPStateExpired   OTPState = "expired"
	OTPStateExhausted OTPState = "exhausted"
)

// OTPRequest is one issued one-time code. The code itself is never stored,
// only OTPHash.
type OTPRequest struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Identifier    string     `db:"identifier" json:"identifier"`
	Purpose       string     `db:"purpose" json:"purpose"`
	Channel       string     `db:"channel" json:"channel"`
	OTPHash       string     `db:"otp_hash" json:"-"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	MaxAttempts   int        `db:"max_attempts" json:"max_attempts"`
	AttemptCount  int        `db:"attempt_count" json:"attempt_count"`
	ConsumedAt    *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
	IPAddress     *string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent     *string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// State reports where the request sits in its lifecycle at now. Consumed,
// expired and exhausted are all terminal.
func (r *OTPRequest) State(now time.Time) OTPState {
	switch {
	case r.ConsumedAt != nil:
		return OTPStateConsumed
	case !now.Before(r.ExpiresAt):
		return OTPStateExpired
	case r.AttemptCount >= r.MaxAttempts:
		return OTPStateExhausted
	default:
		return OTPStateActive
	}
}

func (r *OTPRequest) AttemptsExhausted() bool {
	return r.AttemptCount >= r.MaxAttempts
}
