package escalation

import (
	"sync/atomic"
	"time"
)

type Scan string

const (
	ScanUpcoming  Scan = "repayment_upcoming"
	ScanOverdue3  Scan = "repayment_overdue_3"
	ScanOverdue7  Scan = "repayment_overdue_7"
	ScanOverdue10 Scan = "repayment_overdue_10"
	ScanNotes     Scan = "note_reminders"
	ScanStale     Scan = "stale_applications"
	ScanStagnant  Scan = "stagnant_applications"
	ScanReminders Scan = "scheduled_emails"
)

// ScanReport counts entity outcomes for one scan. Skipped covers claims lost
// to a concurrent run and entities with nobody to notify.
type ScanReport struct {
	Candidates int    `json:"candidates"`
	Dispatched int    `json:"dispatched"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
	Error      string `json:"error,omitempty"`
}

type Report struct {
	Date       string              `json:"date"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	Scans      map[Scan]ScanReport `json:"scans"`
}

func (r Report) Totals() ScanReport {
	var t ScanReport
	for _, s := range r.Scans {
		t.Candidates += s.Candidates
		t.Dispatched += s.Dispatched
		t.Skipped += s.Skipped
		t.Failed += s.Failed
	}
	return t
}

type outcome int

const (
	outcomeDispatched outcome = iota
	outcomeSkipped
	outcomeFailed
)

// tally is shared by the workers of one scan.
type tally struct {
	dispatched, skipped, failed atomic.Int64
}

func (t *tally) add(o outcome) {
	switch o {
	case outcomeDispatched:
		t.dispatched.Add(1)
	case outcomeSkipped:
		t.skipped.Add(1)
	default:
		t.failed.Add(1)
	}
}

func (t *tally) report(candidates int) ScanReport {
	return ScanReport{
		Candidates: candidates,
		Dispatched: int(t.dispatched.Load()),
		Skipped:    int(t.skipped.Load()),
		Failed:     int(t.failed.Load()),
	}
}
