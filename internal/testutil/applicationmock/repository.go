package applicationmock

import (
	"context"
	"time"

	domain "loancrm/internal/domain/application"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn           func(ctx context.Context, a *domain.Application) error
	GetByIDFn          func(ctx context.Context, id uint64) (*domain.Application, error)
	GetByIDForUpdateFn func(ctx context.Context, id uint64) (*domain.Application, error)
	SaveFn             func(ctx context.Context, a *domain.Application) error
	AddBorrowerFn      func(ctx context.Context, applicationID, userID uint64) error
	BorrowerUserIDsFn  func(ctx context.Context, applicationID uint64) ([]uint64, error)
	ListStaleFn        func(ctx context.Context, cutoff time.Time) ([]domain.Application, error)
	ListStagnantFn     func(ctx context.Context, cutoff time.Time) ([]domain.Application, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Application) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Application, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Application, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, a *domain.Application) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) AddBorrower(ctx context.Context, applicationID, userID uint64) error {
	if m.AddBorrowerFn != nil {
		return m.AddBorrowerFn(ctx, applicationID, userID)
	}
	return nil
}

func (m *Repo) BorrowerUserIDs(ctx context.Context, applicationID uint64) ([]uint64, error) {
	if m.BorrowerUserIDsFn != nil {
		return m.BorrowerUserIDsFn(ctx, applicationID)
	}
	return nil, nil
}

func (m *Repo) ListStale(ctx context.Context, cutoff time.Time) ([]domain.Application, error) {
	if m.ListStaleFn != nil {
		return m.ListStaleFn(ctx, cutoff)
	}
	return nil, nil
}

func (m *Repo) ListStagnant(ctx context.Context, cutoff time.Time) ([]domain.Application, error) {
	if m.ListStagnantFn != nil {
		return m.ListStagnantFn(ctx, cutoff)
	}
	return nil, nil
}
