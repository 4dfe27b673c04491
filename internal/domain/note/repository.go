package note

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, n *Note) error
	// ListRemindBetween returns notes whose reminder date falls in [from, to).
	ListRemindBetween(ctx context.Context, from, to time.Time) ([]Note, error)
}
