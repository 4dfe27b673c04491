package uow

import (
	"context"
	"errors"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/fee"
	"loancrm/internal/domain/ledger"
	"loancrm/internal/domain/note"
	"loancrm/internal/domain/repayment"
)

// ErrPersistence wraps any write failure inside a unit of work. The whole unit
// is rolled back when it is returned.
var ErrPersistence = errors.New("persistence failure")

// Repos are bound to the same transaction.
type Repos struct {
	Applications application.Repository
	Fees         fee.Repository
	Repayments   repayment.Repository
	Ledger       ledger.Repository
	Notes        note.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the application first, then pass it in
	WithinApplicationTx(ctx context.Context, applicationID uint64, fn func(r Repos, a *application.Application) error) error
}
