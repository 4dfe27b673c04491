package application

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id uint64) (*Application, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Application, error)
	Save(ctx context.Context, a *Application) error

	AddBorrower(ctx context.Context, applicationID, userID uint64) error
	BorrowerUserIDs(ctx context.Context, applicationID uint64) ([]uint64, error)

	// ListStale returns non-terminal applications last modified before cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]Application, error)
	// ListStagnant returns non-terminal applications whose stage last changed before cutoff.
	ListStagnant(ctx context.Context, cutoff time.Time) ([]Application, error)
}
