// Package escalation runs the periodic reminder and overdue scans.
//
// A run is a pure function of the injected "now": every scan derives its
// window from it, so any calendar day can be replayed. The repayment tiers are
// guarded by one-shot flags flipped with a conditional update, which makes
// overlapping runs safe without any external lock. Notes and stale or
// stagnant applications have no such guard and are re-notified on every run.
package escalation

import (
	"context"
	"errors"
	"time"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/note"
	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/reminder"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/user"
	"loancrm/internal/logging"
	notify "loancrm/internal/usecase/notification"
)

var ErrRunInProgress = errors.New("escalation run already in progress")

const lockKey = "escalation:run"

// Scheduler is what an external timer invokes.
type Scheduler interface {
	Run(ctx context.Context, now time.Time) (Report, error)
}

// Notifier stores a notification and hands back its outbound delivery, so
// push and email can run after a tier claim commits. A nil Pending means the
// recipient opted out.
type Notifier interface {
	Record(ctx context.Context, req notify.Request) (*notify.Pending, error)
}

// Locker guards against overlapping runs. It is an optimisation only.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type Config struct {
	UpcomingDays int
	StaleDays    int
	Workers      int
	Location     *time.Location
	LockTTL      time.Duration
	// DefaultFrom is used for scheduled emails without a send-as user.
	DefaultFrom string
}

func (c Config) withDefaults() Config {
	if c.UpcomingDays <= 0 {
		c.UpcomingDays = 7
	}
	if c.StaleDays <= 0 {
		c.StaleDays = 14
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.LockTTL <= 0 {
		c.LockTTL = 10 * time.Minute
	}
	return c
}

type Deps struct {
	Applications application.Repository
	Repayments   repayment.Repository
	Notes        note.Repository
	Reminders    reminder.Repository
	Users        user.Repository
	Notifier     Notifier
	Mailer       notification.Mailer
	// Locker is optional.
	Locker Locker
}

type Engine struct {
	Deps
	cfg Config
	log logging.Logger
}

var _ Scheduler = (*Engine)(nil)

func NewEngine(d Deps, cfg Config, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	return &Engine{Deps: d, cfg: cfg.withDefaults(), log: log.With("component", "escalation")}
}

// Run performs every scan once for the calendar day of now in the configured
// location. Per-entity failures are logged and counted, never returned.
func (e *Engine) Run(ctx context.Context, now time.Time) (Report, error) {
	if e.Locker != nil {
		release, ok, err := e.Locker.TryAcquire(ctx, lockKey, e.cfg.LockTTL)
		switch {
		case err != nil:
			// Tiers match one exact date, so skipping today would lose them for good.
			e.log.Warn(ctx, "run lock unavailable, scanning without it", "error", err)
		case !ok:
			return Report{}, ErrRunInProgress
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					e.log.Warn(ctx, "release run lock failed", "error", err)
				}
			}()
		}
	}

	local := now.In(e.cfg.Location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	rep := Report{
		Date:      today.Format(time.DateOnly),
		StartedAt: now,
		Scans:     make(map[Scan]ScanReport, 8),
	}

	for _, rule := range tierRules(e.cfg.UpcomingDays) {
		rep.Scans[rule.scan] = e.scanTier(ctx, today, rule)
	}
	rep.Scans[ScanNotes] = e.scanNotes(ctx, today)
	rep.Scans[ScanStale] = e.scanApplications(ctx, now, staleScan)
	rep.Scans[ScanStagnant] = e.scanApplications(ctx, now, stagnantScan)
	rep.Scans[ScanReminders] = e.scanReminders(ctx, now)

	rep.FinishedAt = time.Now()
	t := rep.Totals()
	e.log.Info(ctx, "escalation run finished",
		"date", rep.Date,
		"candidates", t.Candidates,
		"dispatched", t.Dispatched,
		"skipped", t.Skipped,
		"failed", t.Failed)
	return rep, nil
}

// recordAll stores one notification per recipient and reports how many
// succeeded. A preference-gated recipient counts as a success.
func (e *Engine) recordAll(ctx context.Context, recipients []uint64, req notify.Request) (pending []*notify.Pending, ok int) {
	for _, uid := range recipients {
		req.UserID = uid
		p, err := e.Notifier.Record(ctx, req)
		if err != nil {
			e.log.Error(ctx, "dispatch failed", "user_id", uid, "category", req.Category, "error", err)
			continue
		}
		ok++
		if p != nil {
			pending = append(pending, p)
		}
	}
	return pending, ok
}

// deliverAll pushes and emails; channel failures are logged by the dispatcher.
func (e *Engine) deliverAll(ctx context.Context, pending []*notify.Pending) {
	for _, p := range pending {
		p.Deliver(ctx)
	}
}

func (e *Engine) dispatchAll(ctx context.Context, recipients []uint64, req notify.Request) (ok, failed int) {
	pending, ok := e.recordAll(ctx, recipients, req)
	e.deliverAll(ctx, pending)
	return ok, len(recipients) - ok
}
