package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a refresh-token session. Only the keyed hash of the refresh
// token is stored; the raw token is handed to the client once.
type Session struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	UserID           int64      `db:"user_id" json:"user_id"`
	RefreshTokenHash string     `db:"refresh_token_hash" json:"-"`
	ExpiresAt        time.Time  `db:"expires_at" json:"expires_at"`
	RevokedAt        *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress        *string    `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent        *string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
