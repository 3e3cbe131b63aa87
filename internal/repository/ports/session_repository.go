package ports

import (
	"context"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) (*domain.Session, error)
}
