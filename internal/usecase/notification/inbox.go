package notification

import (
	"context"
	"time"

	"loancrm/internal/domain/notification"
	"loancrm/internal/logging"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Inbox is the per-user read side of notifications. The stored unread count is
// the source of truth; pushes after a change are only a hint to live clients.
type Inbox struct {
	repo   notification.Repository
	pusher notification.Pusher
	log    logging.Logger
	now    func() time.Time
}

func NewInbox(repo notification.Repository, pusher notification.Pusher, log logging.Logger, now func() time.Time) *Inbox {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Inbox{repo: repo, pusher: pusher, log: log, now: now}
}

func (i *Inbox) List(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]notification.Notification, error) {
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	return i.repo.ListByUser(ctx, userID, unreadOnly, limit)
}

func (i *Inbox) UnreadCount(ctx context.Context, userID uint64) (int64, error) {
	return i.repo.CountUnread(ctx, userID)
}

func (i *Inbox) MarkRead(ctx context.Context, userID, notificationID uint64) error {
	if err := i.repo.MarkRead(ctx, userID, notificationID, i.now().UTC()); err != nil {
		return err
	}
	i.pushCount(ctx, userID)
	return nil
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	n, err := i.repo.MarkAllRead(ctx, userID, i.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		i.pushCount(ctx, userID)
	}
	return n, nil
}

func (i *Inbox) pushCount(ctx context.Context, userID uint64) {
	if i.pusher == nil {
		return
	}
	count, err := i.repo.CountUnread(ctx, userID)
	if err == nil {
		err = i.pusher.PushToUser(ctx, userID, notification.NewUnreadCountPush(count))
	}
	if err != nil {
		i.log.Warn(ctx, "unread count push failed", "user_id", userID, "error", err)
	}
}
