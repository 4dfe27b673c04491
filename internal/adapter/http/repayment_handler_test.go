package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/ledger"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/uow"
	"loancrm/internal/testutil/applicationmock"
	"loancrm/internal/testutil/ledgermock"
	"loancrm/internal/testutil/repaymentmock"
	"loancrm/internal/testutil/uowmock"
	ledgeruc "loancrm/internal/usecase/ledger"
	repaymentuc "loancrm/internal/usecase/repayment"
)

type repaymentEnv struct {
	h      *RepaymentHandler
	ledger *ledgermock.Repo
	stored []*repayment.Repayment
}

func newRepaymentEnv(app application.Application) *repaymentEnv {
	env := &repaymentEnv{ledger: &ledgermock.Repo{}}
	get := func(_ context.Context, id uint64) (*repayment.Repayment, error) {
		for _, r := range env.stored {
			if r.ID == id {
				cp := *r
				return &cp, nil
			}
		}
		return nil, repayment.ErrNotFound
	}
	repo := &repaymentmock.Repo{
		CreateFn: func(_ context.Context, r *repayment.Repayment) error {
			r.ID = uint64(len(env.stored) + 1)
			cp := *r
			env.stored = append(env.stored, &cp)
			return nil
		},
		GetByIDFn:          get,
		GetByIDForUpdateFn: get,
		SaveFn: func(_ context.Context, r *repayment.Repayment) error {
			for i, s := range env.stored {
				if s.ID == r.ID {
					cp := *r
					env.stored[i] = &cp
				}
			}
			return nil
		},
		CountByApplicationFn: func(_ context.Context, appID uint64) (int64, error) {
			return int64(len(env.stored)), nil
		},
		ListByApplicationFn: func(_ context.Context, appID uint64) ([]repayment.Repayment, error) {
			var out []repayment.Repayment
			for _, r := range env.stored {
				out = append(out, *r)
			}
			return out, nil
		},
	}
	apps := &applicationmock.Repo{
		GetByIDForUpdateFn: func(_ context.Context, id uint64) (*application.Application, error) {
			if id != app.ID {
				return nil, application.ErrNotFound
			}
			cp := app
			return &cp, nil
		},
	}
	tx := uowmock.Passthrough(uow.Repos{Applications: apps, Repayments: repo, Ledger: env.ledger})
	env.h = NewRepaymentHandler(repaymentuc.NewUsecase(repo, tx, ledgeruc.NewPoster(fixedNow), fixedNow))
	return env
}

func termedApplication() application.Application {
	settle := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return application.Application{
		ID:                      5,
		LoanAmount:              decimal.NewFromInt(12000),
		InterestRate:            decimal.RequireFromString("6.5"),
		LoanTerm:                12,
		RepaymentFrequency:      application.FrequencyMonthly,
		EstimatedSettlementDate: &settle,
	}
}

func TestGenerateSchedule_CreatesThenConflicts(t *testing.T) {
	env := newRepaymentEnv(termedApplication())
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodPost, "/api/v1/applications/5/repayments/schedule", nil, "id", "5")
	if err := env.h.GenerateSchedule(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []repayment.Repayment
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("expected 12 installments, got %d", len(got))
	}
	if d := got[0].DueDate.Format(time.DateOnly); d != "2025-05-01" {
		t.Fatalf("first due date = %s", d)
	}
	scheduled := 0
	for _, le := range env.ledger.Created {
		if le.TransactionType == ledger.TypeRepaymentScheduled {
			scheduled++
		}
	}
	if scheduled != 12 {
		t.Fatalf("repayment_scheduled entries = %d", scheduled)
	}

	c, rec = newCtx(e, http.MethodPost, "/api/v1/applications/5/repayments/schedule", nil, "id", "5")
	_ = env.h.GenerateSchedule(c)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second schedule, got %d", rec.Code)
	}
}

func TestGenerateSchedule_IncompleteTerms(t *testing.T) {
	app := termedApplication()
	app.LoanTerm = 0
	env := newRepaymentEnv(app)
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodPost, "/api/v1/applications/5/repayments/schedule", nil, "id", "5")
	_ = env.h.GenerateSchedule(c)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCreateRepayment_AlreadyPaidPostsBoth(t *testing.T) {
	env := newRepaymentEnv(termedApplication())
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodPost, "/api/v1/applications/5/repayments", mustJSON(map[string]any{
		"amount":    "1033.37",
		"due_date":  "2025-05-01",
		"paid_date": "2025-04-30",
	}), "id", "5")
	if err := env.h.CreateRepayment(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if len(env.ledger.Created) != 2 ||
		env.ledger.Created[0].TransactionType != ledger.TypeRepaymentScheduled ||
		env.ledger.Created[1].TransactionType != ledger.TypeRepaymentReceived {
		t.Fatalf("unexpected ledger: %+v", env.ledger.Created)
	}
}

func TestCreateRepayment_RejectsNegativeAmount(t *testing.T) {
	env := newRepaymentEnv(termedApplication())
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodPost, "/api/v1/applications/5/repayments", mustJSON(map[string]any{
		"amount":   "-1.00",
		"due_date": "2025-05-01",
	}), "id", "5")
	_ = env.h.CreateRepayment(c)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if er := decodeError(t, rec); !containsFieldMsg(er.Details, "Amount", "non-negative") {
		t.Fatalf("unexpected details: %+v", er.Details)
	}
}

func TestRepaymentMarkPaid_Twice(t *testing.T) {
	env := newRepaymentEnv(termedApplication())
	e := newEchoWithValidator()
	env.stored = []*repayment.Repayment{{ID: 1, ApplicationID: 5, Amount: decimal.NewFromInt(1000), DueDate: handlerNow}}

	for i, want := range []bool{false, true} {
		c, rec := newCtx(e, http.MethodPost, "/api/v1/repayments/1/mark-paid", nil, "repayment_id", "1")
		if err := env.h.MarkPaid(c); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		var resp markRepaymentPaidResp
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.AlreadyPaid != want {
			t.Fatalf("call %d: already_paid=%v", i, resp.AlreadyPaid)
		}
	}
	if len(env.ledger.Created) != 1 {
		t.Fatalf("expected one repayment_received, got %+v", env.ledger.Created)
	}
}

func TestListRepayments_Empty(t *testing.T) {
	env := newRepaymentEnv(termedApplication())
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodGet, "/api/v1/applications/5/repayments", nil, "id", "5")
	_ = env.h.ListRepayments(c)
	if rec.Body.String() != "[]\n" {
		t.Fatalf("got %q", rec.Body.String())
	}
}

func TestGetRepayment_BadID(t *testing.T) {
	env := newRepaymentEnv(termedApplication())
	e := newEchoWithValidator()

	c, _ := newCtx(e, http.MethodGet, "/api/v1/repayments/0", nil, "repayment_id", "0")
	if code := httpStatus(t, env.h.GetRepayment(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
