package reminder

import (
	"context"
	"time"

	"loancrm/internal/domain/claim"
)

type Repository interface {
	Create(ctx context.Context, r *Reminder) error
	// ListDue returns unsent reminders with SendAt <= now.
	ListDue(ctx context.Context, now time.Time) ([]Reminder, error)
	// WithSendClaim marks the reminder sent (is_sent=false -> true, sent_at=now) and
	// runs send while holding the claim. A send error rolls the claim back and is
	// recorded in error_message.
	WithSendClaim(ctx context.Context, id uint64, now time.Time, send func() error) (claim.Result, error)
}
