package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
)

const sessionColumns = `id, user_id, refresh_token_hash, expires_at, revoked_at, ip_address, user_agent, created_at`

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	const query = `
        INSERT INTO user_session (id, user_id, refresh_token_hash, expires_at, ip_address, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + sessionColumns
	id := session.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := r.db.QueryRowxContext(ctx, query, id, session.UserID, session.RefreshTokenHash, session.ExpiresAt, session.IPAddress, session.UserAgent)
	var created domain.Session
	if err := row.StructScan(&created); err != nil {
		return nil, translate(err)
	}
	return &created, nil
}

// FindByRefreshHash loads a session by the HMAC of its refresh token.
func (r *SessionRepository) FindByRefreshHash(ctx context.Context, hash string) (*domain.Session, error) {
	const query = `
        SELECT ` + sessionColumns + `
        FROM user_session
        WHERE refresh_token_hash = $1
    `
	var session domain.Session
	if err := r.db.GetContext(ctx, &session, query, hash); err != nil {
		return nil, translate(err)
	}
	return &session, nil
}
