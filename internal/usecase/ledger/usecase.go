package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/ledger"
	"loancrm/internal/domain/uow"
)

type Usecase struct {
	repo   ledger.Repository
	uow    uow.UnitOfWork
	poster *Poster
}

func NewUsecase(repo ledger.Repository, tx uow.UnitOfWork, poster *Poster) *Usecase {
	return &Usecase{repo: repo, uow: tx, poster: poster}
}

type AdjustmentInput struct {
	ApplicationID uint64
	Amount        decimal.Decimal
	Description   string
	CreatedBy     *uint64
}

func (u *Usecase) ListByApplication(ctx context.Context, applicationID uint64) ([]ledger.Entry, error) {
	return u.repo.ListByApplication(ctx, applicationID)
}

func (u *Usecase) PostAdjustment(ctx context.Context, in AdjustmentInput) (*ledger.Entry, error) {
	if in.Amount.IsZero() {
		return nil, fmt.Errorf("%w: adjustment amount must be non-zero", ErrInvalidInput)
	}
	var out *ledger.Entry
	err := u.uow.WithinApplicationTx(ctx, in.ApplicationID, func(r uow.Repos, a *application.Application) error {
		e, err := u.poster.OnAdjustment(ctx, r.Ledger, a.ID, in.Amount, in.Description, in.CreatedBy)
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
