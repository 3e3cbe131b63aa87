package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
)

const userColumns = `id, phone, email, name, is_active, created_at, updated_at`

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindActiveByPhone(ctx context.Context, phone string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE phone = $1 AND is_active = TRUE
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, phone); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) FindActiveByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM user_account
        WHERE id = $1 AND is_active = TRUE
    `
	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Create is used by seeding and integration tests; user management lives elsewhere.
func (r *UserRepository) Create(ctx context.Context, phone string, email *string, name string) (*domain.User, error) {
	const query = `
        INSERT INTO user_account (phone, email, name)
        VALUES ($1, $2, $3)
        RETURNING ` + userColumns
	row := r.db.QueryRowxContext(ctx, query, phone, email, name)
	var user domain.User
	if err := row.StructScan(&user); err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	const query = `
        UPDATE user_account
        SET is_active = $2,
            updated_at = NOW()
        WHERE id = $1
    `
	_, err := r.db.ExecContext(ctx, query, id, active)
	return err
}
