package notemock

import (
	"context"
	"time"

	domain "loancrm/internal/domain/note"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn            func(ctx context.Context, n *domain.Note) error
	ListRemindBetweenFn func(ctx context.Context, from, to time.Time) ([]domain.Note, error)
}

func (m *Repo) Create(ctx context.Context, n *domain.Note) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	return nil
}

func (m *Repo) ListRemindBetween(ctx context.Context, from, to time.Time) ([]domain.Note, error) {
	if m.ListRemindBetweenFn != nil {
		return m.ListRemindBetweenFn(ctx, from, to)
	}
	return nil, nil
}
