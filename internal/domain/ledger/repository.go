package ledger

import "context"

// Repository has no update or delete by design of the ledger.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByApplication(ctx context.Context, applicationID uint64) ([]Entry, error)
	CountByRelatedFee(ctx context.Context, feeID uint64, t Type) (int64, error)
	CountByRelatedRepayment(ctx context.Context, repaymentID uint64, t Type) (int64, error)
	Summary(ctx context.Context, f Filter) ([]TypeTotal, error)
}
