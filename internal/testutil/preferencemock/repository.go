package preferencemock

import (
	"context"
	"sync"

	domain "loancrm/internal/domain/preference"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// With the Fn fields unset it keeps rows in memory keyed by user id.
type Repo struct {
	GetByUserIDFn func(ctx context.Context, userID uint64) (*domain.Preferences, error)
	CreateFn      func(ctx context.Context, p *domain.Preferences) error
	SaveFn        func(ctx context.Context, p *domain.Preferences) error

	mu   sync.Mutex
	Rows map[uint64]*domain.Preferences
}

func (m *Repo) GetByUserID(ctx context.Context, userID uint64) (*domain.Preferences, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Rows[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Create(ctx context.Context, p *domain.Preferences) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Rows == nil {
		m.Rows = map[uint64]*domain.Preferences{}
	}
	if _, ok := m.Rows[p.UserID]; !ok {
		cp := *p
		m.Rows[p.UserID] = &cp
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, p *domain.Preferences) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Rows == nil {
		m.Rows = map[uint64]*domain.Preferences{}
	}
	cp := *p
	m.Rows[p.UserID] = &cp
	return nil
}
