package ports

import (
	"context"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
)

type UserRepository interface {
	FindActiveByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindActiveByID(ctx context.Context, id int64) (*domain.User, error)
}
