package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
)

const otpRequestColumns = `id, user_id, identifier, purpose, channel, otp_hash, expires_at, max_attempts,
        attempt_count, consumed_at, last_attempt_at, ip_address, user_agent, created_at`

type OTPRepository struct {
	db *sqlx.DB
}

func NewOTPRepo(db *sqlx.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, req *domain.OTPRequest) (*domain.OTPRequest, error) {
	const query = `
        INSERT INTO otp_request (user_id, identifier, purpose, channel, otp_hash, expires_at, max_attempts, ip_address, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + otpRequestColumns
	row := r.db.QueryRowxContext(ctx, query,
		req.UserID, req.Identifier, req.Purpose, req.Channel, req.OTPHash,
		req.ExpiresAt, req.MaxAttempts, req.IPAddress, req.UserAgent,
	)
	var created domain.OTPRequest
	if err := row.StructScan(&created); err != nil {
		return nil, translate(err)
	}
	return &created, nil
}

func (r *OTPRepository) FindLatestActive(ctx context.Context, identifier, purpose string, now time.Time) (*domain.OTPRequest, error) {
	const query = `
        SELECT ` + otpRequestColumns + `
        FROM otp_request
        WHERE identifier = $1 AND purpose = $2 AND consumed_at IS NULL AND expires_at > $3
        ORDER BY created_at DESC, id DESC
        LIMIT 1
    `
	var req domain.OTPRequest
	if err := r.db.GetContext(ctx, &req, query, identifier, purpose, now); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *OTPRepository) RecordAttempt(ctx context.Context, attempt *domain.OTPAttempt, now time.Time) (bool, error) {
	const update = `
        UPDATE otp_request
        SET attempt_count = attempt_count + 1,
            last_attempt_at = $2,
            consumed_at = CASE WHEN $3::boolean THEN $2 ELSE consumed_at END
        WHERE id = $1
          AND consumed_at IS NULL
          AND attempt_count < max_attempts
          AND expires_at > $2
    `
	const insert = `
        INSERT INTO otp_attempt (otp_request_id, user_id, identifier, purpose, succeeded, ip_address, user_agent, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, update, attempt.OTPRequestID, now, attempt.Succeeded)
	if err != nil {
		return false, fmt.Errorf("otp repository: update request %d: %w", attempt.OTPRequestID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	applied := affected == 1

	attempt.Succeeded = attempt.Succeeded && applied
	attempt.CreatedAt = now
	if err := tx.GetContext(ctx, &attempt.ID, insert,
		attempt.OTPRequestID, attempt.UserID, attempt.Identifier, attempt.Purpose,
		attempt.Succeeded, attempt.IPAddress, attempt.UserAgent, now,
	); err != nil {
		return false, fmt.Errorf("otp repository: insert attempt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return applied, nil
}

// FindByID loads a request regardless of state.
func (r *OTPRepository) FindByID(ctx context.Context, id int64) (*domain.OTPRequest, error) {
	const query = `
        SELECT ` + otpRequestColumns + `
        FROM otp_request
        WHERE id = $1
    `
	var req domain.OTPRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// ListAttempts returns every attempt logged against a request, oldest first.
func (r *OTPRepository) ListAttempts(ctx context.Context, requestID int64) ([]domain.OTPAttempt, error) {
	const query = `
        SELECT id, otp_request_id, user_id, identifier, purpose, succeeded, ip_address, user_agent, created_at
        FROM otp_attempt
        WHERE otp_request_id = $1
        ORDER BY id
    `
	var attempts []domain.OTPAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, requestID); err != nil {
		return nil, err
	}
	return attempts, nil
}
