package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/note"
	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/uow"
	"loancrm/internal/domain/user"
	"loancrm/internal/logging"
	notify "loancrm/internal/usecase/notification"
	"loancrm/pkg/id"
)

var ErrInvalidInput = errors.New("invalid application input")

type Notifier interface {
	Notify(ctx context.Context, req notify.Request) (*notify.Delivery, error)
}

type Usecase struct {
	repo     application.Repository
	users    user.Repository
	uow      uow.UnitOfWork
	notifier Notifier
	log      logging.Logger
	now      func() time.Time
}

func NewUsecase(
	repo application.Repository,
	users user.Repository,
	tx uow.UnitOfWork,
	notifier Notifier,
	log logging.Logger,
	now func() time.Time,
) *Usecase {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Usecase{
		repo:     repo,
		users:    users,
		uow:      tx,
		notifier: notifier,
		log:      log.With("component", "applications"),
		now:      now,
	}
}

func (u *Usecase) Create(ctx context.Context, in CreateApplicationInput) (*application.Application, error) {
	if in.LoanAmount.IsNegative() || in.InterestRate.IsNegative() || in.LoanTerm < 0 {
		return nil, fmt.Errorf("%w: amount, rate and term must not be negative", ErrInvalidInput)
	}
	freq := in.RepaymentFrequency
	if freq == "" {
		freq = application.FrequencyMonthly
	}
	if !freq.Valid() {
		return nil, fmt.Errorf("%w: repayment frequency %q", ErrInvalidInput, freq)
	}

	now := u.now().UTC()
	a := &application.Application{
		Reference:               id.NewReference("APP"),
		Stage:                   application.StageInquiry,
		LoanAmount:              in.LoanAmount.Round(2),
		InterestRate:            in.InterestRate,
		LoanTerm:                in.LoanTerm,
		RepaymentFrequency:      freq,
		RelationshipManagerID:   in.RelationshipManagerID,
		BrokerID:                in.BrokerID,
		EstimatedSettlementDate: in.EstimatedSettlementDate,
		StageUpdatedAt:          now,
	}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Applications.Create(ctx, a); err != nil {
			return fmt.Errorf("%w: create application: %w", uow.ErrPersistence, err)
		}
		for _, uid := range in.BorrowerIDs {
			if err := r.Applications.AddBorrower(ctx, a.ID, uid); err != nil {
				return fmt.Errorf("%w: add borrower %d: %w", uow.ErrPersistence, uid, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (u *Usecase) Get(ctx context.Context, applicationID uint64) (*application.Application, error) {
	return u.repo.GetByID(ctx, applicationID)
}

// ChangeStage moves the application to stage, records an audit note and then
// tells everyone attached to the application. Notification failures are
// logged; the stage change itself has already committed by then.
func (u *Usecase) ChangeStage(ctx context.Context, applicationID uint64, stage application.Stage, actorID *uint64) (*application.Application, error) {
	if !stage.Valid() {
		return nil, fmt.Errorf("%w: %q", application.ErrInvalidStage, stage)
	}

	var (
		out  *application.Application
		prev application.Stage
	)
	err := u.uow.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *application.Application) error {
		if a.Stage == stage {
			return fmt.Errorf("%w: already %s", application.ErrInvalidTransition, stage)
		}
		prev = a.Stage
		a.Stage = stage
		a.StageUpdatedAt = u.now().UTC()
		if err := r.Applications.Save(ctx, a); err != nil {
			return fmt.Errorf("%w: save application %d: %w", uow.ErrPersistence, a.ID, err)
		}
		n := &note.Note{
			ApplicationID: a.ID,
			AuthorID:      actorID,
			Title:         "Stage changed",
			Content:       fmt.Sprintf("Application stage changed from '%s' to '%s'", prev.Display(), stage.Display()),
		}
		if err := r.Notes.Create(ctx, n); err != nil {
			return fmt.Errorf("%w: create stage note: %w", uow.ErrPersistence, err)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.notifyStageChange(ctx, out, prev)
	return out, nil
}

func (u *Usecase) notifyStageChange(ctx context.Context, a *application.Application, prev application.Stage) {
	recipients, err := u.recipients(ctx, a)
	if err != nil {
		u.log.Error(ctx, "resolve stage change recipients", "application_id", a.ID, "error", err)
		return
	}
	related := &notification.RelatedEntity{ID: a.ID, Type: "application"}
	for _, uid := range recipients {
		_, err := u.notifier.Notify(ctx, notify.Request{
			UserID:   uid,
			Category: notification.CategoryApplicationStatus,
			Title:    fmt.Sprintf("Application %s stage updated", a.Reference),
			Message:  fmt.Sprintf("Application stage changed from %s to %s", prev.Display(), a.Stage.Display()),
			Related:  related,
		})
		if err != nil {
			u.log.Error(ctx, "stage change notification failed", "application_id", a.ID, "user_id", uid, "error", err)
		}
	}
}

// recipients are the broker, the relationship manager, the borrowers and every
// admin, each at most once.
func (u *Usecase) recipients(ctx context.Context, a *application.Application) ([]uint64, error) {
	var ids []uint64
	seen := map[uint64]bool{}
	add := func(id uint64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if a.BrokerID != nil {
		add(*a.BrokerID)
	}
	if a.RelationshipManagerID != nil {
		add(*a.RelationshipManagerID)
	}
	borrowers, err := u.repo.BorrowerUserIDs(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("borrowers: %w", err)
	}
	for _, id := range borrowers {
		add(id)
	}
	admins, err := u.users.ListByRole(ctx, user.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("admins: %w", err)
	}
	for _, adm := range admins {
		add(adm.ID)
	}
	return ids, nil
}
