package notificationmock

import (
	"context"
	"sync"
	"time"

	domain "loancrm/internal/domain/notification"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// With CreateFn unset, Create records notifications in Created and
// CountUnread counts the recorded ones still unread.
type Repo struct {
	CreateFn      func(ctx context.Context, n *domain.Notification) error
	ListByUserFn  func(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]domain.Notification, error)
	CountUnreadFn func(ctx context.Context, userID uint64) (int64, error)
	MarkReadFn    func(ctx context.Context, userID, id uint64, at time.Time) error
	MarkAllReadFn func(ctx context.Context, userID uint64, at time.Time) (int64, error)

	mu      sync.Mutex
	Created []domain.Notification
}

func (m *Repo) Create(ctx context.Context, n *domain.Notification) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = uint64(len(m.Created) + 1)
	m.Created = append(m.Created, *n)
	return nil
}

func (m *Repo) ListByUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID, unreadOnly, limit)
	}
	return nil, nil
}

func (m *Repo) CountUnread(ctx context.Context, userID uint64) (int64, error) {
	if m.CountUnreadFn != nil {
		return m.CountUnreadFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, c := range m.Created {
		if c.UserID == userID && !c.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *Repo) MarkRead(ctx context.Context, userID, id uint64, at time.Time) error {
	if m.MarkReadFn != nil {
		return m.MarkReadFn(ctx, userID, id, at)
	}
	return nil
}

func (m *Repo) MarkAllRead(ctx context.Context, userID uint64, at time.Time) (int64, error) {
	if m.MarkAllReadFn != nil {
		return m.MarkAllReadFn(ctx, userID, at)
	}
	return 0, nil
}

// For returns the recorded notifications for userID.
func (m *Repo) For(userID uint64) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, c := range m.Created {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}
