package escalation

import (
	"context"
	"errors"
	"sync"
	"time"

	"loancrm/internal/domain/claim"
	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/testutil/repaymentmock"
	notify "loancrm/internal/usecase/notification"
)

// repaymentStore mimics the conditional flag update of the SQL repository.
type repaymentStore struct {
	*repaymentmock.Repo
	mu     sync.Mutex
	rows   map[uint64]*repayment.Repayment
	events *timeline
}

func newRepaymentStore(rows ...repayment.Repayment) *repaymentStore {
	s := &repaymentStore{Repo: &repaymentmock.Repo{}, rows: map[uint64]*repayment.Repayment{}}
	for i := range rows {
		r := rows[i]
		s.rows[r.ID] = &r
	}
	return s
}

func (s *repaymentStore) ListDueBetween(_ context.Context, tier repayment.Tier, from, to time.Time) ([]repayment.Repayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repayment.Repayment
	for _, r := range s.rows {
		if r.PaidDate == nil && !r.Flag(tier) && !r.DueDate.Before(from) && r.DueDate.Before(to) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *repaymentStore) WithTierClaim(_ context.Context, id uint64, tier repayment.Tier, send func() bool) (claim.Result, error) {
	s.mu.Lock()
	r, ok := s.rows[id]
	if !ok || r.PaidDate != nil || r.Flag(tier) {
		s.mu.Unlock()
		return claim.Lost, nil
	}
	setFlag(r, tier, true)
	s.mu.Unlock()

	s.events.add("claim")
	if send() {
		s.events.add("commit")
		return claim.Committed, nil
	}
	s.mu.Lock()
	setFlag(r, tier, false)
	s.mu.Unlock()
	s.events.add("rollback")
	return claim.Abandoned, nil
}

func (s *repaymentStore) flag(id uint64, tier repayment.Tier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id].Flag(tier)
}

func setFlag(r *repayment.Repayment, tier repayment.Tier, v bool) {
	switch tier {
	case repayment.TierUpcoming:
		r.ReminderSent = v
	case repayment.TierOverdue3:
		r.Overdue3DaySent = v
	case repayment.TierOverdue7:
		r.Overdue7DaySent = v
	case repayment.TierOverdue10:
		r.Overdue10DaySent = v
	}
}

type fakeNotifier struct {
	mu        sync.Mutex
	calls     []notify.Request
	delivered []uint64
	fail      map[uint64]bool
	delay     time.Duration
	events    *timeline
}

func (n *fakeNotifier) Record(_ context.Context, req notify.Request) (*notify.Pending, error) {
	if n.delay > 0 {
		time.Sleep(n.delay)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, req)
	if n.fail[req.UserID] {
		return nil, errors.New("persistence failure")
	}
	n.events.add("record")
	stored := &notification.Notification{UserID: req.UserID, Title: req.Title}
	return notify.NewPending(stored, func(context.Context) *notify.Delivery {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.delivered = append(n.delivered, req.UserID)
		n.events.add("deliver")
		return &notify.Delivery{Notification: stored, Pushed: true}
	}), nil
}

func (n *fakeNotifier) deliveredTo() []uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]uint64(nil), n.delivered...)
}

func (n *fakeNotifier) titlesFor(userID uint64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, c := range n.calls {
		if c.UserID == userID {
			out = append(out, c.Title)
		}
	}
	return out
}

func (n *fakeNotifier) setFail(userID uint64, v bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail == nil {
		n.fail = map[uint64]bool{}
	}
	n.fail[userID] = v
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notification.Email
	err  error
}

func (m *fakeMailer) SendEmail(_ context.Context, e notification.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}

type fakeLocker struct {
	held     bool
	released bool
}

func (l *fakeLocker) TryAcquire(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func(context.Context) error {
		l.held = false
		l.released = true
		return nil
	}, true, nil
}

// unreachableLocker fails like a Redis client whose server is down.
type unreachableLocker struct{ attempts int }

func (l *unreachableLocker) TryAcquire(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	l.attempts++
	return nil, false, errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
}

// timeline records the order in which fakes were touched. A nil timeline
// ignores everything.
type timeline struct {
	mu     sync.Mutex
	events []string
}

func (t *timeline) add(e string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func (t *timeline) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}
