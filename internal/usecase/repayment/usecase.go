package repayment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/uow"
	"loancrm/internal/usecase/amortization"
	"loancrm/internal/usecase/ledger"
)

var ErrInvalidInput = errors.New("invalid repayment input")

type Usecase struct {
	repo   repayment.Repository
	uow    uow.UnitOfWork
	poster *ledger.Poster
	now    func() time.Time
}

func NewUsecase(repo repayment.Repository, tx uow.UnitOfWork, poster *ledger.Poster, now func() time.Time) *Usecase {
	if now == nil {
		now = time.Now
	}
	return &Usecase{repo: repo, uow: tx, poster: poster, now: now}
}

func (u *Usecase) Create(ctx context.Context, in CreateRepaymentInput) (*repayment.Repayment, error) {
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	r := &repayment.Repayment{
		ApplicationID: in.ApplicationID,
		Amount:        in.Amount,
		DueDate:       dateOnly(in.DueDate),
		PaidDate:      datePtr(in.PaidDate),
	}
	err := u.uow.WithinApplicationTx(ctx, in.ApplicationID, func(repos uow.Repos, _ *application.Application) error {
		return u.create(ctx, repos, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (u *Usecase) create(ctx context.Context, repos uow.Repos, r *repayment.Repayment) error {
	if err := repos.Repayments.Create(ctx, r); err != nil {
		return fmt.Errorf("%w: create repayment: %w", uow.ErrPersistence, err)
	}
	if err := u.poster.OnRepaymentCreated(ctx, repos.Ledger, r); err != nil {
		return err
	}
	return u.poster.OnRepaymentPaidDateChanged(ctx, repos.Ledger, r, nil, r.PaidDate)
}

// SetPaidDate never touches the reminder flags; those belong to the escalation engine.
func (u *Usecase) SetPaidDate(ctx context.Context, repaymentID uint64, paid *time.Time) (*repayment.Repayment, error) {
	r, _, err := u.setPaidDate(ctx, repaymentID, paid, false)
	return r, err
}

// MarkPaid sets the paid date to on, or today when on is nil. An already paid
// repayment is returned unchanged with alreadyPaid set.
func (u *Usecase) MarkPaid(ctx context.Context, repaymentID uint64, on *time.Time) (*repayment.Repayment, bool, error) {
	if on == nil {
		today := u.now().UTC()
		on = &today
	}
	return u.setPaidDate(ctx, repaymentID, on, true)
}

func (u *Usecase) setPaidDate(ctx context.Context, repaymentID uint64, paid *time.Time, onlyIfUnpaid bool) (out *repayment.Repayment, alreadyPaid bool, err error) {
	err = u.uow.WithinTx(ctx, func(repos uow.Repos) error {
		r, err := repos.Repayments.GetByIDForUpdate(ctx, repaymentID)
		if err != nil {
			return err
		}
		if onlyIfUnpaid && r.Paid() {
			out, alreadyPaid = r, true
			return nil
		}
		prev := r.PaidDate
		r.PaidDate = datePtr(paid)
		if err := repos.Repayments.Save(ctx, r); err != nil {
			return fmt.Errorf("%w: save repayment: %w", uow.ErrPersistence, err)
		}
		if err := u.poster.OnRepaymentPaidDateChanged(ctx, repos.Ledger, r, prev, r.PaidDate); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, alreadyPaid, nil
}

// GenerateSchedule creates the application's full repayment schedule. The
// first installment falls one period after the estimated settlement date, or
// after today when none is set. An application that already has repayments is
// refused since their ledger history cannot be removed.
func (u *Usecase) GenerateSchedule(ctx context.Context, applicationID uint64) ([]repayment.Repayment, error) {
	var out []repayment.Repayment
	err := u.uow.WithinApplicationTx(ctx, applicationID, func(repos uow.Repos, a *application.Application) error {
		if a.LoanAmount.IsZero() || a.LoanTerm <= 0 || !a.RepaymentFrequency.Valid() {
			return application.ErrIncompleteTerms
		}
		n, err := repos.Repayments.CountByApplication(ctx, a.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return repayment.ErrScheduleExists
		}

		installments, err := amortization.Schedule(a.LoanAmount, a.InterestRate, a.LoanTerm, a.RepaymentFrequency)
		if err != nil {
			return err
		}
		anchor := dateOnly(u.now().UTC())
		if a.EstimatedSettlementDate != nil {
			anchor = dateOnly(*a.EstimatedSettlementDate)
		}
		dates, err := amortization.DueDates(anchor, a.RepaymentFrequency, a.LoanTerm+1)
		if err != nil {
			return err
		}

		out = make([]repayment.Repayment, 0, len(installments))
		for i, inst := range installments {
			r := &repayment.Repayment{
				ApplicationID: a.ID,
				Amount:        inst.Amount,
				DueDate:       dates[i+1],
			}
			if err := u.create(ctx, repos, r); err != nil {
				return err
			}
			out = append(out, *r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, repaymentID uint64) (*repayment.Repayment, error) {
	return u.repo.GetByID(ctx, repaymentID)
}

func (u *Usecase) ListByApplication(ctx context.Context, applicationID uint64) ([]repayment.Repayment, error) {
	return u.repo.ListByApplication(ctx, applicationID)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func datePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := dateOnly(*t)
	return &d
}
