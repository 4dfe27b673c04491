package escalation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/claim"
	"loancrm/internal/domain/note"
	"loancrm/internal/domain/reminder"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/user"
	"loancrm/internal/logging"
	"loancrm/internal/testutil/applicationmock"
	"loancrm/internal/testutil/notemock"
	"loancrm/internal/testutil/remindermock"
	"loancrm/internal/testutil/usermock"
)

const (
	borrowerA = uint64(10)
	borrowerB = uint64(11)
	manager   = uint64(20)
)

// 10:00 UTC on 10 March 2025
var runAt = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func today() time.Time { return date(2025, 3, 10) }

type world struct {
	apps       *applicationmock.Repo
	repayments *repaymentStore
	notes      *notemock.Repo
	reminders  *remindermock.Repo
	users      *usermock.Repo
	notifier   *fakeNotifier
	mailer     *fakeMailer
	logs       *observer.ObservedLogs
}

func newWorld(rows ...repayment.Repayment) *world {
	rm := manager
	app := application.Application{
		ID:                    1,
		Reference:             "APP-0001",
		Stage:                 application.StageValuation,
		LoanAmount:            decimal.NewFromInt(250000),
		RelationshipManagerID: &rm,
	}
	w := &world{
		repayments: newRepaymentStore(rows...),
		notes:      &notemock.Repo{},
		reminders:  &remindermock.Repo{},
		users: &usermock.Repo{Users: map[uint64]user.User{
			manager: {ID: manager, Email: "rm@example.com", FirstName: "Rita", LastName: "Manager", Role: user.RoleBD},
		}},
		notifier: &fakeNotifier{},
		mailer:   &fakeMailer{},
	}
	w.apps = &applicationmock.Repo{
		GetByIDFn: func(_ context.Context, id uint64) (*application.Application, error) {
			if id != app.ID {
				return nil, application.ErrNotFound
			}
			cp := app
			return &cp, nil
		},
		BorrowerUserIDsFn: func(context.Context, uint64) ([]uint64, error) {
			return []uint64{borrowerA, borrowerB}, nil
		},
	}
	return w
}

func (w *world) engine(cfg Config) *Engine {
	core, logs := observer.New(zapcore.DebugLevel)
	w.logs = logs
	return NewEngine(Deps{
		Applications: w.apps,
		Repayments:   w.repayments,
		Notes:        w.notes,
		Reminders:    w.reminders,
		Users:        w.users,
		Notifier:     w.notifier,
		Mailer:       w.mailer,
	}, cfg, logging.NewZapLogger(zap.New(core)))
}

func due(id uint64, d time.Time) repayment.Repayment {
	return repayment.Repayment{ID: id, ApplicationID: 1, Amount: decimal.RequireFromString("1250.50"), DueDate: d}
}

func TestRun_UpcomingExactDay(t *testing.T) {
	w := newWorld(
		due(1, today().AddDate(0, 0, 7)),
		due(2, today().AddDate(0, 0, 8)),
	)

	rep, err := w.engine(Config{}).Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, []string{"Upcoming Repayment Reminder"}, w.notifier.titlesFor(borrowerA))
	assert.Equal(t, []string{"Upcoming Repayment Reminder"}, w.notifier.titlesFor(borrowerB))
	assert.True(t, w.repayments.flag(1, repayment.TierUpcoming))
	assert.False(t, w.repayments.flag(2, repayment.TierUpcoming))
	assert.Equal(t, ScanReport{Candidates: 1, Dispatched: 1}, rep.Scans[ScanUpcoming])
	assert.Equal(t, "2025-03-10", rep.Date)
}

func TestRun_TierDeliversAfterClaimCommits(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, -3)))
	tl := &timeline{}
	w.repayments.events = tl
	w.notifier.events = tl

	_, err := w.engine(Config{}).Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, []string{"claim", "record", "record", "commit", "deliver", "deliver"}, tl.all())
	assert.ElementsMatch(t, []uint64{borrowerA, borrowerB}, w.notifier.deliveredTo())
}

func TestRun_AbandonedClaimDeliversNothing(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, -7)))
	w.notifier.setFail(borrowerA, true)
	w.notifier.setFail(borrowerB, true)

	_, err := w.engine(Config{}).Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.Empty(t, w.notifier.deliveredTo())
	assert.False(t, w.repayments.flag(1, repayment.TierOverdue7))
}

func TestRun_TwiceSendsTiersAtMostOnce(t *testing.T) {
	w := newWorld(
		due(1, today().AddDate(0, 0, 7)),
		due(2, today().AddDate(0, 0, -3)),
		due(3, today().AddDate(0, 0, -7)),
		due(4, today().AddDate(0, 0, -10)),
	)
	e := w.engine(Config{})

	_, err := e.Run(context.Background(), runAt)
	require.NoError(t, err)
	second, err := e.Run(context.Background(), runAt)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Upcoming Repayment Reminder",
		"OVERDUE Repayment Notice",
		"URGENT: 7 Days OVERDUE Repayment",
	}, w.notifier.titlesFor(borrowerA))
	assert.Equal(t, []string{"ESCALATION: 10 Days Overdue Repayment"}, w.notifier.titlesFor(manager))
	for _, s := range []Scan{ScanUpcoming, ScanOverdue3, ScanOverdue7, ScanOverdue10} {
		assert.Zero(t, second.Scans[s].Candidates, s)
	}
}

func TestRun_ConcurrentRunsSendAtMostOnce(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, -3)), due(2, today().AddDate(0, 0, -3)))
	w.notifier.delay = 20 * time.Millisecond
	e := w.engine(Config{Workers: 4})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Run(context.Background(), runAt)
		}()
	}
	wg.Wait()

	assert.Len(t, w.notifier.titlesFor(borrowerA), 2)
	assert.Len(t, w.notifier.titlesFor(borrowerB), 2)
}

func TestRun_PartialFailureSetsFlag(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, -3)))
	w.notifier.setFail(borrowerA, true)

	rep, err := w.engine(Config{}).Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.True(t, w.repayments.flag(1, repayment.TierOverdue3))
	assert.Equal(t, 1, rep.Scans[ScanOverdue3].Dispatched)
}

func TestRun_TotalFailureLeavesFlagForRetry(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, -7)))
	w.notifier.setFail(borrowerA, true)
	w.notifier.setFail(borrowerB, true)
	e := w.engine(Config{})

	rep, err := e.Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.False(t, w.repayments.flag(1, repayment.TierOverdue7))
	assert.Equal(t, 1, rep.Scans[ScanOverdue7].Failed)

	failures := w.logs.FilterMessage("every recipient failed, flag left unset for retry").All()
	require.Len(t, failures, 1)
	fields := failures[0].ContextMap()
	assert.Equal(t, uint64(1), fields["repayment_id"])
	assert.Equal(t, string(repayment.TierOverdue7), fields["tier"])

	w.notifier.setFail(borrowerA, false)
	w.notifier.setFail(borrowerB, false)
	rep, err = e.Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.True(t, w.repayments.flag(1, repayment.TierOverdue7))
	assert.Equal(t, 1, rep.Scans[ScanOverdue7].Dispatched)
}

func TestRun_PaidRepaymentIgnored(t *testing.T) {
	paid := today()
	r := due(1, today().AddDate(0, 0, -3))
	r.PaidDate = &paid
	w := newWorld(r)

	_, err := w.engine(Config{}).Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.Empty(t, w.notifier.titlesFor(borrowerA))
}

func TestRun_NoManagerStillFlagsOverdue10(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, -10)))
	base := w.apps.GetByIDFn
	w.apps.GetByIDFn = func(ctx context.Context, id uint64) (*application.Application, error) {
		a, err := base(ctx, id)
		if a != nil {
			a.RelationshipManagerID = nil
		}
		return a, err
	}

	rep, err := w.engine(Config{}).Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.True(t, w.repayments.flag(1, repayment.TierOverdue10))
	assert.Equal(t, 1, rep.Scans[ScanOverdue10].Skipped)
	assert.Empty(t, w.notifier.titlesFor(manager))
}

func TestRun_UsesConfiguredLocationForToday(t *testing.T) {
	// 20:00 UTC on 9 March is already 10 March at UTC+11
	w := newWorld(due(1, date(2025, 3, 17)))
	e := w.engine(Config{Location: time.FixedZone("UTC+11", 11*3600)})

	rep, err := e.Run(context.Background(), time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", rep.Date)
	assert.True(t, w.repayments.flag(1, repayment.TierUpcoming))
}

func TestRun_NotesAndStaleRepeatEveryRun(t *testing.T) {
	author := borrowerA
	w := newWorld()
	w.notes.ListRemindBetweenFn = func(_ context.Context, from, to time.Time) ([]note.Note, error) {
		assert.Equal(t, today(), from)
		assert.Equal(t, today().AddDate(0, 0, 1), to)
		return []note.Note{{ID: 5, ApplicationID: 1, AuthorID: &author, Title: "Call valuer"}}, nil
	}
	rm := manager
	var staleCutoff time.Time
	w.apps.ListStaleFn = func(_ context.Context, cutoff time.Time) ([]application.Application, error) {
		staleCutoff = cutoff
		return []application.Application{{ID: 1, Reference: "APP-0001", Stage: application.StageValuation, RelationshipManagerID: &rm}}, nil
	}
	w.apps.ListStagnantFn = func(context.Context, time.Time) ([]application.Application, error) {
		return []application.Application{{ID: 2, Reference: "APP-0002", Stage: application.StageInquiry, RelationshipManagerID: &rm}}, nil
	}
	e := w.engine(Config{})

	for i := 0; i < 2; i++ {
		_, err := e.Run(context.Background(), runAt)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"Note Reminder: Call valuer", "Note Reminder: Call valuer"}, w.notifier.titlesFor(borrowerA))
	assert.ElementsMatch(t, []string{
		"Stale Application Alert: APP-0001", "Stagnant Application Alert: APP-0002",
		"Stale Application Alert: APP-0001", "Stagnant Application Alert: APP-0002",
	}, w.notifier.titlesFor(manager))
	assert.Equal(t, runAt.AddDate(0, 0, -14), staleCutoff)
}

func TestRun_ScheduledEmails(t *testing.T) {
	w := newWorld()
	sendAs, replyTo := manager, manager
	w.reminders.ListDueFn = func(_ context.Context, now time.Time) ([]reminder.Reminder, error) {
		assert.Equal(t, runAt, now)
		return []reminder.Reminder{{
			ID: 3, RecipientEmail: "client@example.com", Subject: "Documents", Body: "Please upload",
			SendAsID: &sendAs, ReplyToID: &replyTo,
		}}, nil
	}
	e := w.engine(Config{DefaultFrom: "noreply@example.com"})

	rep, err := e.Run(context.Background(), runAt)
	require.NoError(t, err)
	require.Len(t, w.mailer.sent, 1)
	assert.Equal(t, `"Rita Manager" <rm@example.com>`, w.mailer.sent[0].From)
	assert.Equal(t, "rm@example.com", w.mailer.sent[0].ReplyTo)
	assert.Equal(t, 1, rep.Scans[ScanReminders].Dispatched)
}

func TestRun_ScheduledEmailFailureIsRetryable(t *testing.T) {
	w := newWorld()
	w.mailer.err = errors.New("smtp: 421 service not available")
	w.reminders.ListDueFn = func(context.Context, time.Time) ([]reminder.Reminder, error) {
		return []reminder.Reminder{{ID: 3, RecipientEmail: "client@example.com", Subject: "Docs"}}, nil
	}
	var claimed claim.Result
	w.reminders.WithSendClaimFn = func(_ context.Context, _ uint64, _ time.Time, send func() error) (claim.Result, error) {
		claimed = claim.Committed
		if send() != nil {
			claimed = claim.Abandoned
		}
		return claimed, nil
	}

	rep, err := w.engine(Config{DefaultFrom: "noreply@example.com"}).Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, claim.Abandoned, claimed)
	assert.Equal(t, 1, rep.Scans[ScanReminders].Failed)
}

func TestRun_LockHeld(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, 7)))
	lock := &fakeLocker{held: true}
	e := w.engine(Config{})
	e.Locker = lock

	_, err := e.Run(context.Background(), runAt)
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Empty(t, w.notifier.titlesFor(borrowerA))

	lock.held = false
	_, err = e.Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.True(t, lock.released)
	assert.Len(t, w.notifier.titlesFor(borrowerA), 1)
}

func TestRun_LockStoreDownStillScans(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, -3)))
	lock := &unreachableLocker{}
	e := w.engine(Config{})
	e.Locker = lock

	rep, err := e.Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, 1, lock.attempts)
	assert.Equal(t, []string{"OVERDUE Repayment Notice"}, w.notifier.titlesFor(borrowerA))
	assert.True(t, w.repayments.flag(1, repayment.TierOverdue3))
	assert.Equal(t, 1, rep.Scans[ScanOverdue3].Dispatched)

	warned := w.logs.FilterMessage("run lock unavailable, scanning without it").All()
	require.Len(t, warned, 1)
	assert.Equal(t, zapcore.WarnLevel, warned[0].Level)
}

func TestRun_ListFailureIsolatedToScan(t *testing.T) {
	w := newWorld(due(1, today().AddDate(0, 0, 7)))
	w.notes.ListRemindBetweenFn = func(context.Context, time.Time, time.Time) ([]note.Note, error) {
		return nil, errors.New("connection reset")
	}

	rep, err := w.engine(Config{}).Run(context.Background(), runAt)
	require.NoError(t, err)
	assert.Equal(t, "connection reset", rep.Scans[ScanNotes].Error)
	assert.Equal(t, 1, rep.Scans[ScanUpcoming].Dispatched)
}

func TestReport_Totals(t *testing.T) {
	r := Report{Scans: map[Scan]ScanReport{
		ScanUpcoming: {Candidates: 2, Dispatched: 1, Failed: 1},
		ScanStale:    {Candidates: 3, Dispatched: 2, Skipped: 1},
	}}
	assert.Equal(t, ScanReport{Candidates: 5, Dispatched: 3, Skipped: 1, Failed: 1}, r.Totals())
}
