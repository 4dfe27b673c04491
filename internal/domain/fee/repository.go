package fee

import "context"

type Repository interface {
	Create(ctx context.Context, f *Fee) error
	GetByID(ctx context.Context, id uint64) (*Fee, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Fee, error)
	Save(ctx context.Context, f *Fee) error
	ListByApplication(ctx context.Context, applicationID uint64) ([]Fee, error)
}
