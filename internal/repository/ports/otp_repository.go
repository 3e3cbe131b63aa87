package ports

import (
	"context"
	"time"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
)

type OTPRepository interface {
	Create(ctx context.Context, req *domain.OTPRequest) (*domain.OTPRequest, error)
	// FindLatestActive returns the newest unconsumed request for identifier and
	// purpose whose expiry is after now, or ErrNotFound.
	FindLatestActive(ctx context.Context, identifier, purpose string, now time.Time) (*domain.OTPRequest, error)
	// RecordAttempt counts one verification try against attempt.OTPRequestID and
	// appends the audit row in the same transaction. When attempt.Succeeded is
	// set the request is consumed too. applied is false when the request was no
	// longer active at now; the audit row is still written, marked failed.
	RecordAttempt(ctx context.Context, attempt *domain.OTPAttempt, now time.Time) (applied bool, err error)
}
