package fee

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/fee"
	"loancrm/internal/domain/uow"
	"loancrm/internal/usecase/ledger"
)

var ErrInvalidInput = errors.New("invalid fee input")

type Usecase struct {
	repo   fee.Repository
	uow    uow.UnitOfWork
	poster *ledger.Poster
	now    func() time.Time
}

func NewUsecase(repo fee.Repository, tx uow.UnitOfWork, poster *ledger.Poster, now func() time.Time) *Usecase {
	if now == nil {
		now = time.Now
	}
	return &Usecase{repo: repo, uow: tx, poster: poster, now: now}
}

// Create inserts the fee and its fee_created entry in one transaction. A fee
// created already paid also gets its fee_paid entry.
func (u *Usecase) Create(ctx context.Context, in CreateFeeInput) (*fee.Fee, error) {
	if !in.FeeType.Valid() {
		return nil, fmt.Errorf("%w: %q", fee.ErrInvalidType, in.FeeType)
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	f := &fee.Fee{
		ApplicationID: in.ApplicationID,
		FeeType:       in.FeeType,
		Description:   in.Description,
		Amount:        in.Amount,
		DueDate:       dateOnly(in.DueDate),
		PaidDate:      datePtr(in.PaidDate),
	}
	err := u.uow.WithinApplicationTx(ctx, in.ApplicationID, func(r uow.Repos, _ *application.Application) error {
		return u.create(ctx, r, f)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (u *Usecase) create(ctx context.Context, r uow.Repos, f *fee.Fee) error {
	if err := r.Fees.Create(ctx, f); err != nil {
		return fmt.Errorf("%w: create fee: %w", uow.ErrPersistence, err)
	}
	if err := u.poster.OnFeeCreated(ctx, r.Ledger, f); err != nil {
		return err
	}
	return u.poster.OnFeePaidDateChanged(ctx, r.Ledger, f, nil, f.PaidDate)
}

// SetPaidDate records (or clears) the paid date. Only the first transition
// from unpaid to paid posts a ledger entry.
func (u *Usecase) SetPaidDate(ctx context.Context, feeID uint64, paid *time.Time) (*fee.Fee, error) {
	f, _, err := u.setPaidDate(ctx, feeID, paid, false)
	return f, err
}

// MarkPaid sets the paid date to on, or today when on is nil. An already paid
// fee is returned unchanged with alreadyPaid set; the check happens under the
// row lock so concurrent calls cannot both win.
func (u *Usecase) MarkPaid(ctx context.Context, feeID uint64, on *time.Time) (*fee.Fee, bool, error) {
	if on == nil {
		today := u.now().UTC()
		on = &today
	}
	return u.setPaidDate(ctx, feeID, on, true)
}

func (u *Usecase) setPaidDate(ctx context.Context, feeID uint64, paid *time.Time, onlyIfUnpaid bool) (out *fee.Fee, alreadyPaid bool, err error) {
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		f, err := r.Fees.GetByIDForUpdate(ctx, feeID)
		if err != nil {
			return err
		}
		if onlyIfUnpaid && f.Paid() {
			out, alreadyPaid = f, true
			return nil
		}
		prev := f.PaidDate
		f.PaidDate = datePtr(paid)
		if err := r.Fees.Save(ctx, f); err != nil {
			return fmt.Errorf("%w: save fee: %w", uow.ErrPersistence, err)
		}
		if err := u.poster.OnFeePaidDateChanged(ctx, r.Ledger, f, prev, f.PaidDate); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, alreadyPaid, nil
}

// CreateStandardFees adds the standard fee set to an application.
func (u *Usecase) CreateStandardFees(ctx context.Context, applicationID uint64) ([]fee.Fee, error) {
	today := dateOnly(u.now().UTC())
	out := make([]fee.Fee, 0, len(standardFees))
	err := u.uow.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *application.Application) error {
		for i, sf := range standardFees {
			f := &fee.Fee{
				ApplicationID: a.ID,
				FeeType:       sf.Type,
				Description:   sf.Description,
				Amount:        decimal.NewFromInt(sf.Amount),
				DueDate:       today.AddDate(0, 0, 7*(i+1)),
			}
			if err := u.create(ctx, r, f); err != nil {
				return err
			}
			out = append(out, *f)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Get(ctx context.Context, feeID uint64) (*fee.Fee, error) {
	return u.repo.GetByID(ctx, feeID)
}

func (u *Usecase) ListByApplication(ctx context.Context, applicationID uint64) ([]fee.Fee, error) {
	return u.repo.ListByApplication(ctx, applicationID)
}
