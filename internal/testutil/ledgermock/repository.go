package ledgermock

import (
	"context"
	"sync"

	domain "loancrm/internal/domain/ledger"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// With CreateFn unset, Create records entries in Created and the
// CountByRelated* defaults count from them.
type Repo struct {
	CreateFn                  func(ctx context.Context, e *domain.Entry) error
	ListByApplicationFn       func(ctx context.Context, applicationID uint64) ([]domain.Entry, error)
	CountByRelatedFeeFn       func(ctx context.Context, feeID uint64, t domain.Type) (int64, error)
	CountByRelatedRepaymentFn func(ctx context.Context, repaymentID uint64, t domain.Type) (int64, error)
	SummaryFn                 func(ctx context.Context, f domain.Filter) ([]domain.TypeTotal, error)

	mu      sync.Mutex
	Created []domain.Entry
}

func (m *Repo) Create(ctx context.Context, e *domain.Entry) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uint64(len(m.Created) + 1)
	m.Created = append(m.Created, *e)
	return nil
}

func (m *Repo) ListByApplication(ctx context.Context, applicationID uint64) ([]domain.Entry, error) {
	if m.ListByApplicationFn != nil {
		return m.ListByApplicationFn(ctx, applicationID)
	}
	return nil, nil
}

func (m *Repo) CountByRelatedFee(ctx context.Context, feeID uint64, t domain.Type) (int64, error) {
	if m.CountByRelatedFeeFn != nil {
		return m.CountByRelatedFeeFn(ctx, feeID, t)
	}
	return m.count(func(e domain.Entry) bool {
		return e.TransactionType == t && e.RelatedFeeID != nil && *e.RelatedFeeID == feeID
	}), nil
}

func (m *Repo) CountByRelatedRepayment(ctx context.Context, repaymentID uint64, t domain.Type) (int64, error) {
	if m.CountByRelatedRepaymentFn != nil {
		return m.CountByRelatedRepaymentFn(ctx, repaymentID, t)
	}
	return m.count(func(e domain.Entry) bool {
		return e.TransactionType == t && e.RelatedRepaymentID != nil && *e.RelatedRepaymentID == repaymentID
	}), nil
}

func (m *Repo) Summary(ctx context.Context, f domain.Filter) ([]domain.TypeTotal, error) {
	if m.SummaryFn != nil {
		return m.SummaryFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) count(match func(domain.Entry) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.Created {
		if match(e) {
			n++
		}
	}
	return n
}
