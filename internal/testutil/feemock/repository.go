package feemock

import (
	"context"

	domain "loancrm/internal/domain/fee"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn            func(ctx context.Context, f *domain.Fee) error
	GetByIDFn           func(ctx context.Context, id uint64) (*domain.Fee, error)
	GetByIDForUpdateFn  func(ctx context.Context, id uint64) (*domain.Fee, error)
	SaveFn              func(ctx context.Context, f *domain.Fee) error
	ListByApplicationFn func(ctx context.Context, applicationID uint64) ([]domain.Fee, error)
}

func (m *Repo) Create(ctx context.Context, f *domain.Fee) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, f)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Fee, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Fee, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, f *domain.Fee) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, f)
	}
	return nil
}

func (m *Repo) ListByApplication(ctx context.Context, applicationID uint64) ([]domain.Fee, error) {
	if m.ListByApplicationFn != nil {
		return m.ListByApplicationFn(ctx, applicationID)
	}
	return nil, nil
}
