package notification

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/sync/errgroup"

	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/preference"
	"loancrm/internal/domain/uow"
	"loancrm/internal/domain/user"
	"loancrm/internal/logging"
)

const defaultChannelTimeout = 10 * time.Second

// PreferenceSource resolves a user's preferences, creating defaults when absent.
type PreferenceSource interface {
	GetOrCreate(ctx context.Context, userID uint64) (*preference.Preferences, error)
}

type Request struct {
	UserID   uint64
	Category notification.Category
	Title    string
	Message  string
	Related  *notification.RelatedEntity
}

// Delivery reports what happened on each channel for one notify call.
type Delivery struct {
	Notification *notification.Notification
	Pushed       bool
	EmailSent    bool
	Failures     []DispatchError
}

// DispatchError is a failure on a single channel for a single recipient.
type DispatchError struct {
	Channel string
	UserID  uint64
	Err     error
}

func (e DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s to user %d: %v", e.Channel, e.UserID, e.Err)
}

func (e DispatchError) Unwrap() error { return e.Err }

type DispatcherConfig struct {
	// ChannelTimeout bounds each channel independently.
	ChannelTimeout time.Duration
}

type Dispatcher struct {
	notifications notification.Repository
	prefs         PreferenceSource
	users         user.Repository
	pusher        notification.Pusher
	mailer        notification.Mailer
	timeout       time.Duration
	log           logging.Logger
}

func NewDispatcher(
	notifications notification.Repository,
	prefs PreferenceSource,
	users user.Repository,
	pusher notification.Pusher,
	mailer notification.Mailer,
	cfg DispatcherConfig,
	log logging.Logger,
) *Dispatcher {
	if cfg.ChannelTimeout <= 0 {
		cfg.ChannelTimeout = defaultChannelTimeout
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Dispatcher{
		notifications: notifications,
		prefs:         prefs,
		users:         users,
		pusher:        pusher,
		mailer:        mailer,
		timeout:       cfg.ChannelTimeout,
		log:           log.With("component", "dispatcher"),
	}
}

// Pending is a stored notification whose realtime push and email have not
// run yet.
type Pending struct {
	Notification *notification.Notification
	deliver      func(context.Context) *Delivery
}

func NewPending(n *notification.Notification, deliver func(context.Context) *Delivery) *Pending {
	return &Pending{Notification: n, deliver: deliver}
}

// Deliver runs the outbound channels. Channel failures end up in the Delivery.
func (p *Pending) Deliver(ctx context.Context) *Delivery {
	if p.deliver == nil {
		return &Delivery{Notification: p.Notification}
	}
	return p.deliver(ctx)
}

// Notify returns (nil, nil) when the user has the category switched off in-app;
// nothing is stored or sent in that case, whatever the email flag says.
// Channel failures are reported in the Delivery and never returned as errors.
func (d *Dispatcher) Notify(ctx context.Context, req Request) (*Delivery, error) {
	p, err := d.Record(ctx, req)
	if err != nil || p == nil {
		return nil, err
	}
	return p.Deliver(ctx), nil
}

// Record applies the preference gate and stores the notification without
// touching any outbound channel. A nil Pending means the user opted out.
func (d *Dispatcher) Record(ctx context.Context, req Request) (*Pending, error) {
	prefs, err := d.prefs.GetOrCreate(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load preferences for user %d: %w", req.UserID, err)
	}
	if !prefs.InApp(req.Category) {
		d.log.Debug(ctx, "notification gated by preference", "user_id", req.UserID, "category", req.Category)
		return nil, nil
	}

	n := &notification.Notification{
		UserID:   req.UserID,
		Title:    req.Title,
		Message:  req.Message,
		Category: req.Category,
	}
	if req.Related != nil {
		id := req.Related.ID
		n.RelatedObjectID = &id
		n.RelatedObjectType = req.Related.Type
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("%w: create notification: %w", uow.ErrPersistence, err)
	}

	withEmail := d.mailer != nil && prefs.Email(req.Category)
	return NewPending(n, func(ctx context.Context) *Delivery {
		return d.deliver(ctx, n, withEmail)
	}), nil
}

// deliver runs push and email side by side, each under its own deadline, so a
// stuck channel cannot starve the other.
func (d *Dispatcher) deliver(ctx context.Context, n *notification.Notification, withEmail bool) *Delivery {
	var pushErr, emailErr error
	var g errgroup.Group
	if d.pusher != nil {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			pushErr = d.push(cctx, n)
			return nil
		})
	}
	if withEmail {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, d.timeout)
			defer cancel()
			emailErr = d.email(cctx, n)
			return nil
		})
	}
	_ = g.Wait()

	out := &Delivery{Notification: n}
	fail := func(ch string, err error) {
		out.Failures = append(out.Failures, DispatchError{Channel: ch, UserID: n.UserID, Err: err})
		d.log.Warn(ctx, "notification channel failed", "channel", ch, "user_id", n.UserID, "error", err)
	}
	if d.pusher != nil {
		if pushErr != nil {
			fail("realtime", pushErr)
		} else {
			out.Pushed = true
		}
	}
	if withEmail {
		switch {
		case errors.Is(emailErr, errNoAddress):
			d.log.Debug(ctx, "email skipped: no usable address", "user_id", n.UserID)
		case emailErr != nil:
			fail(string(notification.ChannelEmail), emailErr)
		default:
			out.EmailSent = true
		}
	}
	return out
}

// push sends the notification and then the refreshed unread count.
func (d *Dispatcher) push(ctx context.Context, n *notification.Notification) error {
	if err := d.pusher.PushToUser(ctx, n.UserID, notification.NewNotificationPush(n)); err != nil {
		return err
	}
	count, err := d.notifications.CountUnread(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("count unread: %w", err)
	}
	return d.pusher.PushToUser(ctx, n.UserID, notification.NewUnreadCountPush(count))
}

func (d *Dispatcher) email(ctx context.Context, n *notification.Notification) error {
	u, err := d.users.GetByID(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("lookup recipient: %w", err)
	}
	if !usableAddress(u.Email) {
		return errNoAddress
	}
	return d.mailer.SendEmail(ctx, notification.Email{
		To:      u.Email,
		Subject: n.Title,
		Body:    n.Message,
	})
}

func usableAddress(s string) bool {
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
