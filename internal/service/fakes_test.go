package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/njprem/PropertyHub_APP_BackEnd/internal/domain"
	"github.com/njprem/PropertyHub_APP_BackEnd/internal/repository/ports"
)

type memoryUserRepository struct {
	users map[string]*domain.User
	err   error
}

func newMemoryUserRepository(users ...*domain.User) *memoryUserRepository {
	repo := &memoryUserRepository{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.Phone] = u
	}
	return repo
}

func (r *memoryUserRepository) FindActiveByPhone(_ context.Context, phone string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[phone]
	if !ok || !u.IsActive {
		return nil, ports.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *memoryUserRepository) FindActiveByID(_ context.Context, id int64) (*domain.User, error) {
	for _, u := range r.users {
		if u.ID == id && u.IsActive {
			out := *u
			return &out, nil
		}
	}
	return nil, ports.ErrNotFound
}

// memoryOTPRepository applies the same guarded update as the Postgres
// repository, serialised by a mutex.
type memoryOTPRepository struct {
	mu       sync.Mutex
	nextID   int64
	requests []*domain.OTPRequest
	attempts []domain.OTPAttempt
	clock    func() time.Time
}

func newMemoryOTPRepository(clock func() time.Time) *memoryOTPRepository {
	return &memoryOTPRepository{clock: clock}
}

func (r *memoryOTPRepository) Create(_ context.Context, req *domain.OTPRequest) (*domain.OTPRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	stored := *req
	stored.ID = r.nextID
	stored.CreatedAt = r.clock().Add(time.Duration(r.nextID) * time.Nanosecond)
	r.requests = append(r.requests, &stored)
	out := stored
	return &out, nil
}

func (r *memoryOTPRepository) FindLatestActive(_ context.Context, identifier, purpose string, now time.Time) (*domain.OTPRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.OTPRequest
	for _, req := range r.requests {
		if req.Identifier != identifier || req.Purpose != purpose || req.ConsumedAt != nil || !req.ExpiresAt.After(now) {
			continue
		}
		if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
			latest = req
		}
	}
	if latest == nil {
		return nil, ports.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (r *memoryOTPRepository) RecordAttempt(_ context.Context, attempt *domain.OTPAttempt, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req := r.find(attempt.OTPRequestID)
	if req == nil {
		return false, errors.New("unknown otp request")
	}
	applied := req.State(now) == domain.OTPStateActive
	if applied {
		req.AttemptCount++
		at := now
		req.LastAttemptAt = &at
		if attempt.Succeeded {
			req.ConsumedAt = &at
		}
	}
	attempt.Succeeded = attempt.Succeeded && applied
	attempt.ID = int64(len(r.attempts) + 1)
	attempt.CreatedAt = now
	r.attempts = append(r.attempts, *attempt)
	return applied, nil
}

func (r *memoryOTPRepository) find(id int64) *domain.OTPRequest {
	for _, req := range r.requests {
		if req.ID == id {
			return req
		}
	}
	return nil
}

func (r *memoryOTPRepository) snapshot() ([]domain.OTPRequest, []domain.OTPAttempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reqs := make([]domain.OTPRequest, 0, len(r.requests))
	for _, req := range r.requests {
		reqs = append(reqs, *req)
	}
	return reqs, append([]domain.OTPAttempt(nil), r.attempts...)
}

type memorySessionRepository struct {
	mu       sync.Mutex
	sessions []domain.Session
	err      error
}

func (r *memorySessionRepository) Create(_ context.Context, session *domain.Session) (*domain.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *session
	r.sessions = append(r.sessions, stored)
	return &stored, nil
}

type recordingSender struct {
	mu    sync.Mutex
	err   error
	calls []sentOTP
}

type sentOTP struct {
	phone string
	code  string
}

func (s *recordingSender) SendOTP(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sentOTP{phone: phone, code: code})
	return s.err
}

func (s *recordingSender) last() sentOTP {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return sentOTP{}
	}
	return s.calls[len(s.calls)-1]
}
