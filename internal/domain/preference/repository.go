package preference

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("notification preferences not found")

type Repository interface {
	GetByUserID(ctx context.Context, userID uint64) (*Preferences, error)
	// Create inserts p, or leaves an existing row for the same user untouched.
	Create(ctx context.Context, p *Preferences) error
	Save(ctx context.Context, p *Preferences) error
}
