package remindermock

import (
	"context"
	"time"

	"loancrm/internal/domain/claim"
	domain "loancrm/internal/domain/reminder"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn        func(ctx context.Context, r *domain.Reminder) error
	ListDueFn       func(ctx context.Context, now time.Time) ([]domain.Reminder, error)
	WithSendClaimFn func(ctx context.Context, id uint64, now time.Time, send func() error) (claim.Result, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Reminder) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) ListDue(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	if m.ListDueFn != nil {
		return m.ListDueFn(ctx, now)
	}
	return nil, nil
}

// WithSendClaim defaults to an uncontended claim decided by send.
func (m *Repo) WithSendClaim(ctx context.Context, id uint64, now time.Time, send func() error) (claim.Result, error) {
	if m.WithSendClaimFn != nil {
		return m.WithSendClaimFn(ctx, id, now, send)
	}
	if err := send(); err != nil {
		return claim.Abandoned, nil
	}
	return claim.Committed, nil
}
