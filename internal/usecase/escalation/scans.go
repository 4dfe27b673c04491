package escalation

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/sync/errgroup"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/claim"
	"loancrm/internal/domain/note"
	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/reminder"
	"loancrm/internal/domain/repayment"
	notify "loancrm/internal/usecase/notification"
)

type tierRule struct {
	scan       Scan
	tier       repayment.Tier
	offsetDays int
	title      string
	category   notification.Category
	toManager  bool
	message    func(repayment.Repayment, *application.Application) string
}

func tierRules(upcomingDays int) []tierRule {
	return []tierRule{
		{ScanUpcoming, repayment.TierUpcoming, upcomingDays, "Upcoming Repayment Reminder",
			notification.CategoryRepaymentUpcoming, false, upcomingMessage},
		{ScanOverdue3, repayment.TierOverdue3, -3, "OVERDUE Repayment Notice",
			notification.CategoryRepaymentOverdue, false, overdue3Message},
		{ScanOverdue7, repayment.TierOverdue7, -7, "URGENT: 7 Days OVERDUE Repayment",
			notification.CategoryRepaymentOverdue, false, overdue7Message},
		{ScanOverdue10, repayment.TierOverdue10, -10, "ESCALATION: 10 Days Overdue Repayment",
			notification.CategoryRepaymentOverdue, true, overdue10Message},
	}
}

// forEach runs fn for indexes [0, n) on at most cfg.Workers goroutines.
func (e *Engine) forEach(ctx context.Context, n int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

// scanTier matches repayments due exactly on today+offset. A day without a run
// means the tier is never sent for repayments due that day.
func (e *Engine) scanTier(ctx context.Context, today time.Time, rule tierRule) ScanReport {
	due := today.AddDate(0, 0, rule.offsetDays)
	list, err := e.Repayments.ListDueBetween(ctx, rule.tier, due, due.AddDate(0, 0, 1))
	if err != nil {
		e.log.Error(ctx, "list repayments failed", "tier", string(rule.tier), "error", err)
		return ScanReport{Error: err.Error()}
	}

	var t tally
	e.forEach(ctx, len(list), func(i int) {
		t.add(e.processRepayment(ctx, list[i], rule))
	})
	return t.report(len(list))
}

func (e *Engine) processRepayment(ctx context.Context, r repayment.Repayment, rule tierRule) outcome {
	log := e.log.With("repayment_id", r.ID, "tier", string(rule.tier))

	a, err := e.Applications.GetByID(ctx, r.ApplicationID)
	if err != nil {
		log.Error(ctx, "load application failed", "error", err)
		return outcomeFailed
	}
	recipients, err := e.tierRecipients(ctx, a, rule.toManager)
	if err != nil {
		log.Error(ctx, "resolve recipients failed", "error", err)
		return outcomeFailed
	}

	req := notify.Request{
		Category: rule.category,
		Title:    rule.title,
		Message:  rule.message(r, a),
		Related:  &notification.RelatedEntity{ID: r.ID, Type: "repayment"},
	}
	// Only the notification rows are written while the claim holds the row;
	// push and email wait for the commit.
	var pending []*notify.Pending
	res, err := e.Repayments.WithTierClaim(ctx, r.ID, rule.tier, func() bool {
		if len(recipients) == 0 {
			return true
		}
		var ok int
		pending, ok = e.recordAll(ctx, recipients, req)
		return ok > 0
	})
	if err != nil {
		log.Error(ctx, "tier claim failed", "error", err)
		return outcomeFailed
	}
	if res == claim.Committed {
		e.deliverAll(ctx, pending)
	}

	switch res {
	case claim.Lost:
		return outcomeSkipped
	case claim.Abandoned:
		log.Warn(ctx, "every recipient failed, flag left unset for retry", "recipients", len(recipients))
		return outcomeFailed
	}
	if len(recipients) == 0 {
		log.Info(ctx, "no recipients, flag set without dispatch")
		return outcomeSkipped
	}
	return outcomeDispatched
}

func (e *Engine) tierRecipients(ctx context.Context, a *application.Application, toManager bool) ([]uint64, error) {
	if toManager {
		if a.RelationshipManagerID == nil {
			return nil, nil
		}
		return []uint64{*a.RelationshipManagerID}, nil
	}
	return e.Applications.BorrowerUserIDs(ctx, a.ID)
}

// scanNotes has no persisted guard: a second run on the same day sends again.
func (e *Engine) scanNotes(ctx context.Context, today time.Time) ScanReport {
	list, err := e.Notes.ListRemindBetween(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		e.log.Error(ctx, "list note reminders failed", "error", err)
		return ScanReport{Error: err.Error()}
	}

	var t tally
	e.forEach(ctx, len(list), func(i int) {
		t.add(e.processNote(ctx, list[i]))
	})
	return t.report(len(list))
}

func (e *Engine) processNote(ctx context.Context, n note.Note) outcome {
	if n.AuthorID == nil {
		return outcomeSkipped
	}
	ref := "N/A"
	if a, err := e.Applications.GetByID(ctx, n.ApplicationID); err == nil {
		ref = a.Reference
	}
	req := notify.Request{
		Category: notification.CategoryNoteReminder,
		Title:    "Note Reminder: " + n.Title,
		Message: fmt.Sprintf("This is a reminder for the note: %s\n\nContent: %s\n\nRelated to Application: %s\n\nCreated on: %s",
			n.Title, n.Content, ref, n.CreatedAt.Format(displayDate)),
		Related: &notification.RelatedEntity{ID: n.ID, Type: "note"},
	}
	if ok, _ := e.dispatchAll(ctx, []uint64{*n.AuthorID}, req); ok == 0 {
		return outcomeFailed
	}
	return outcomeDispatched
}

type applicationScan struct {
	scan      Scan
	title     string
	lastLabel string
	list      func(application.Repository, context.Context, time.Time) ([]application.Application, error)
	last      func(application.Application) time.Time
}

var staleScan = applicationScan{
	scan:      ScanStale,
	title:     "Stale Application Alert: ",
	lastLabel: "Last Updated",
	list:      application.Repository.ListStale,
	last:      func(a application.Application) time.Time { return a.UpdatedAt },
}

var stagnantScan = applicationScan{
	scan:      ScanStagnant,
	title:     "Stagnant Application Alert: ",
	lastLabel: "Last Stage Update",
	list:      application.Repository.ListStagnant,
	last:      func(a application.Application) time.Time { return a.StageUpdatedAt },
}

// scanApplications alerts the relationship manager of every non-terminal
// application idle for longer than the stale window. It has no persisted guard.
func (e *Engine) scanApplications(ctx context.Context, now time.Time, s applicationScan) ScanReport {
	cutoff := now.AddDate(0, 0, -e.cfg.StaleDays)
	list, err := s.list(e.Applications, ctx, cutoff)
	if err != nil {
		e.log.Error(ctx, "list applications failed", "scan", s.scan, "error", err)
		return ScanReport{Error: err.Error()}
	}

	var t tally
	e.forEach(ctx, len(list), func(i int) {
		a := list[i]
		if a.RelationshipManagerID == nil {
			t.add(outcomeSkipped)
			return
		}
		req := notify.Request{
			Category: notification.CategorySystem,
			Title:    s.title + a.Reference,
			Message:  applicationAlertMessage(a, e.cfg.StaleDays, s.lastLabel, s.last(a).Format(displayDate)),
			Related:  &notification.RelatedEntity{ID: a.ID, Type: "application"},
		}
		if ok, _ := e.dispatchAll(ctx, []uint64{*a.RelationshipManagerID}, req); ok == 0 {
			t.add(outcomeFailed)
			return
		}
		t.add(outcomeDispatched)
	})
	return t.report(len(list))
}

// scanReminders sends scheduled emails that are due. The claim commits only
// when the mailer accepts the message; a failure is recorded on the row and
// retried next run.
func (e *Engine) scanReminders(ctx context.Context, now time.Time) ScanReport {
	if e.Mailer == nil || e.Reminders == nil {
		return ScanReport{}
	}
	list, err := e.Reminders.ListDue(ctx, now)
	if err != nil {
		e.log.Error(ctx, "list due reminders failed", "error", err)
		return ScanReport{Error: err.Error()}
	}

	var t tally
	e.forEach(ctx, len(list), func(i int) {
		t.add(e.processReminder(ctx, list[i], now))
	})
	return t.report(len(list))
}

func (e *Engine) processReminder(ctx context.Context, r reminder.Reminder, now time.Time) outcome {
	msg := notification.Email{
		To:      r.RecipientEmail,
		Subject: r.Subject,
		Body:    r.Body,
		From:    e.cfg.DefaultFrom,
	}
	if r.SendAsID != nil {
		if u, err := e.Users.GetByID(ctx, *r.SendAsID); err == nil && u.Email != "" {
			msg.From = (&mail.Address{Name: u.FullName(), Address: u.Email}).String()
		}
	}
	if r.ReplyToID != nil {
		if u, err := e.Users.GetByID(ctx, *r.ReplyToID); err == nil && u.Email != "" {
			msg.ReplyTo = u.Email
		}
	}

	res, err := e.Reminders.WithSendClaim(ctx, r.ID, now, func() error {
		return e.Mailer.SendEmail(ctx, msg)
	})
	if err != nil {
		e.log.Error(ctx, "reminder claim failed", "reminder_id", r.ID, "error", err)
		return outcomeFailed
	}
	switch res {
	case claim.Committed:
		return outcomeDispatched
	case claim.Abandoned:
		e.log.Warn(ctx, "scheduled email failed, will retry", "reminder_id", r.ID)
		return outcomeFailed
	}
	return outcomeSkipped
}
