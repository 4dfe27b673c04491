package repaymentmock

import (
	"context"
	"time"

	"loancrm/internal/domain/claim"
	domain "loancrm/internal/domain/repayment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn             func(ctx context.Context, r *domain.Repayment) error
	GetByIDFn            func(ctx context.Context, id uint64) (*domain.Repayment, error)
	GetByIDForUpdateFn   func(ctx context.Context, id uint64) (*domain.Repayment, error)
	SaveFn               func(ctx context.Context, r *domain.Repayment) error
	ListByApplicationFn  func(ctx context.Context, applicationID uint64) ([]domain.Repayment, error)
	CountByApplicationFn func(ctx context.Context, applicationID uint64) (int64, error)
	ListDueBetweenFn     func(ctx context.Context, tier domain.Tier, from, to time.Time) ([]domain.Repayment, error)
	WithTierClaimFn      func(ctx context.Context, id uint64, tier domain.Tier, send func() bool) (claim.Result, error)
	ComplianceFn         func(ctx context.Context, f domain.ComplianceFilter) (domain.Compliance, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Repayment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Repayment, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Repayment, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, r *domain.Repayment) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) ListByApplication(ctx context.Context, applicationID uint64) ([]domain.Repayment, error) {
	if m.ListByApplicationFn != nil {
		return m.ListByApplicationFn(ctx, applicationID)
	}
	return nil, nil
}

func (m *Repo) CountByApplication(ctx context.Context, applicationID uint64) (int64, error) {
	if m.CountByApplicationFn != nil {
		return m.CountByApplicationFn(ctx, applicationID)
	}
	return 0, nil
}

func (m *Repo) ListDueBetween(ctx context.Context, tier domain.Tier, from, to time.Time) ([]domain.Repayment, error) {
	if m.ListDueBetweenFn != nil {
		return m.ListDueBetweenFn(ctx, tier, from, to)
	}
	return nil, nil
}

// WithTierClaim defaults to an uncontended claim: send runs and decides the outcome.
func (m *Repo) WithTierClaim(ctx context.Context, id uint64, tier domain.Tier, send func() bool) (claim.Result, error) {
	if m.WithTierClaimFn != nil {
		return m.WithTierClaimFn(ctx, id, tier, send)
	}
	if send() {
		return claim.Committed, nil
	}
	return claim.Abandoned, nil
}

func (m *Repo) Compliance(ctx context.Context, f domain.ComplianceFilter) (domain.Compliance, error) {
	if m.ComplianceFn != nil {
		return m.ComplianceFn(ctx, f)
	}
	return domain.Compliance{}, nil
}
