package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/fee"
	"loancrm/internal/domain/ledger"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/uow"
)

const dateLayout = "2006-01-02"

// Poster appends ledger entries for fee and repayment lifecycle events.
//
// Callers invoke it inside the same unit of work that writes the fee or
// repayment and pass a ledger repository bound to that transaction, so the
// owning row and its entry commit or roll back together.
type Poster struct {
	now func() time.Time
}

func NewPoster(now func() time.Time) *Poster {
	if now == nil {
		now = time.Now
	}
	return &Poster{now: now}
}

func (p *Poster) OnFeeCreated(ctx context.Context, repo ledger.Repository, f *fee.Fee) error {
	return p.post(ctx, repo, &ledger.Entry{
		ApplicationID:   f.ApplicationID,
		TransactionType: ledger.TypeFeeCreated,
		Amount:          f.Amount,
		Description:     "Fee created: " + f.FeeType.Display(),
		TransactionDate: p.now().UTC(),
		RelatedFeeID:    &f.ID,
	})
}

// OnFeePaidDateChanged posts fee_paid on a null to non-null transition, once
// per fee: clearing the date and paying again posts nothing.
func (p *Poster) OnFeePaidDateChanged(ctx context.Context, repo ledger.Repository, f *fee.Fee, prev, next *time.Time) error {
	if !becamePaid(prev, next) {
		return nil
	}
	n, err := repo.CountByRelatedFee(ctx, f.ID, ledger.TypeFeePaid)
	if err != nil {
		return fmt.Errorf("%w: count fee_paid: %w", uow.ErrPersistence, err)
	}
	if n > 0 {
		return nil
	}
	return p.post(ctx, repo, &ledger.Entry{
		ApplicationID:   f.ApplicationID,
		TransactionType: ledger.TypeFeePaid,
		Amount:          f.Amount,
		Description:     "Fee paid: " + f.FeeType.Display(),
		TransactionDate: *next,
		RelatedFeeID:    &f.ID,
	})
}

func (p *Poster) OnRepaymentCreated(ctx context.Context, repo ledger.Repository, r *repayment.Repayment) error {
	return p.post(ctx, repo, &ledger.Entry{
		ApplicationID:      r.ApplicationID,
		TransactionType:    ledger.TypeRepaymentScheduled,
		Amount:             r.Amount,
		Description:        "Repayment scheduled for " + r.DueDate.Format(dateLayout),
		TransactionDate:    p.now().UTC(),
		RelatedRepaymentID: &r.ID,
	})
}

func (p *Poster) OnRepaymentPaidDateChanged(ctx context.Context, repo ledger.Repository, r *repayment.Repayment, prev, next *time.Time) error {
	if !becamePaid(prev, next) {
		return nil
	}
	n, err := repo.CountByRelatedRepayment(ctx, r.ID, ledger.TypeRepaymentReceived)
	if err != nil {
		return fmt.Errorf("%w: count repayment_received: %w", uow.ErrPersistence, err)
	}
	if n > 0 {
		return nil
	}
	return p.post(ctx, repo, &ledger.Entry{
		ApplicationID:      r.ApplicationID,
		TransactionType:    ledger.TypeRepaymentReceived,
		Amount:             r.Amount,
		Description:        "Repayment received for " + r.DueDate.Format(dateLayout),
		TransactionDate:    *next,
		RelatedRepaymentID: &r.ID,
	})
}

// OnAdjustment posts a manual correction. Adjustments are the only way to
// amend the ledger since existing entries are never edited.
func (p *Poster) OnAdjustment(ctx context.Context, repo ledger.Repository, applicationID uint64, amount decimal.Decimal, description string, createdBy *uint64) (*ledger.Entry, error) {
	e := &ledger.Entry{
		ApplicationID:   applicationID,
		TransactionType: ledger.TypeAdjustment,
		Amount:          amount,
		Description:     description,
		TransactionDate: p.now().UTC(),
		CreatedByID:     createdBy,
	}
	if err := p.post(ctx, repo, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Poster) post(ctx context.Context, repo ledger.Repository, e *ledger.Entry) error {
	if err := repo.Create(ctx, e); err != nil {
		return fmt.Errorf("%w: post %s: %w", uow.ErrPersistence, e.TransactionType, err)
	}
	return nil
}

func becamePaid(prev, next *time.Time) bool { return prev == nil && next != nil }
