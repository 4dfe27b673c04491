package repayment

import (
	"context"
	"time"

	"loancrm/internal/domain/claim"
)

type Repository interface {
	Create(ctx context.Context, r *Repayment) error
	GetByID(ctx context.Context, id uint64) (*Repayment, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Repayment, error)
	Save(ctx context.Context, r *Repayment) error
	ListByApplication(ctx context.Context, applicationID uint64) ([]Repayment, error)
	CountByApplication(ctx context.Context, applicationID uint64) (int64, error)

	// ListDueBetween returns unpaid repayments due in [from, to) whose tier flag is still false.
	ListDueBetween(ctx context.Context, tier Tier, from, to time.Time) ([]Repayment, error)
	// WithTierClaim atomically flips the tier flag from false to true and runs send
	// while holding the claim. When send reports false the flip is rolled back.
	WithTierClaim(ctx context.Context, id uint64, tier Tier, send func() bool) (claim.Result, error)

	Compliance(ctx context.Context, f ComplianceFilter) (Compliance, error)
}
