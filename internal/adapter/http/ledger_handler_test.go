package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/ledger"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/uow"
	"loancrm/internal/domain/user"
	"loancrm/internal/testutil/ledgermock"
	"loancrm/internal/testutil/repaymentmock"
	"loancrm/internal/testutil/uowmock"
	ledgeruc "loancrm/internal/usecase/ledger"
	"loancrm/internal/usecase/report"
)

func newLedgerHandler(repo *ledgermock.Repo) *LedgerHandler {
	tx := uowmock.Passthrough(uow.Repos{Applications: knownApps(1), Ledger: repo})
	return NewLedgerHandler(ledgeruc.NewUsecase(repo, tx, ledgeruc.NewPoster(fixedNow)))
}

func TestPostAdjustment_RecordsActor(t *testing.T) {
	repo := &ledgermock.Repo{}
	h := newLedgerHandler(repo)
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodPost, "/api/v1/applications/1/ledger/adjustments", mustJSON(map[string]any{
		"amount":      "-150.00",
		"description": "Waive valuation",
	}), "id", "1")
	asUser(c, 7, user.RoleAdmin)
	if err := h.PostAdjustment(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.Created) != 1 {
		t.Fatalf("expected one entry, got %d", len(repo.Created))
	}
	got := repo.Created[0]
	if got.TransactionType != ledger.TypeAdjustment || !got.Amount.Equal(decimal.NewFromInt(-150)) {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.CreatedByID == nil || *got.CreatedByID != 7 {
		t.Fatalf("created_by not recorded: %+v", got.CreatedByID)
	}
}

func TestPostAdjustment_ZeroAmountRejected(t *testing.T) {
	h := newLedgerHandler(&ledgermock.Repo{})
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodPost, "/api/v1/applications/1/ledger/adjustments", mustJSON(map[string]any{
		"amount":      "0.00",
		"description": "noop",
	}), "id", "1")
	asUser(c, 7, user.RoleAdmin)
	_ = h.PostAdjustment(c)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if er := decodeError(t, rec); !containsFieldMsg(er.Details, "Amount", "non-zero") {
		t.Fatalf("unexpected details: %+v", er.Details)
	}
}

func TestPostAdjustment_Unauthenticated(t *testing.T) {
	h := newLedgerHandler(&ledgermock.Repo{})
	e := newEchoWithValidator()

	c, _ := newCtx(e, http.MethodPost, "/api/v1/applications/1/ledger/adjustments", mustJSON(map[string]any{
		"amount": "10", "description": "x",
	}), "id", "1")
	if code := httpStatus(t, h.PostAdjustment(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestPostAdjustment_PersistenceFailureIs500(t *testing.T) {
	repo := &ledgermock.Repo{CreateFn: func(context.Context, *ledger.Entry) error { return errors.New("deadlock") }}
	h := newLedgerHandler(repo)
	e := newEchoWithValidator()

	c, _ := newCtx(e, http.MethodPost, "/api/v1/applications/1/ledger/adjustments", mustJSON(map[string]any{
		"amount": "10", "description": "x",
	}), "id", "1")
	asUser(c, 7, user.RoleAdmin)
	err := h.PostAdjustment(c)
	if code := httpStatus(t, err); code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if !errors.Is(err, uow.ErrPersistence) {
		t.Fatalf("internal cause lost: %v", err)
	}
}

func TestListLedger(t *testing.T) {
	repo := &ledgermock.Repo{ListByApplicationFn: func(_ context.Context, id uint64) ([]ledger.Entry, error) {
		return []ledger.Entry{{ID: 2, ApplicationID: id, TransactionType: ledger.TypeFeePaid, Amount: decimal.NewFromInt(5)}}, nil
	}}
	h := newLedgerHandler(repo)
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodGet, "/api/v1/applications/1/ledger", nil, "id", "1")
	_ = h.ListLedger(c)
	var got []ledger.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || len(got) != 1 || got[0].ApplicationID != 1 {
		t.Fatalf("unexpected body: %s (%v)", rec.Body.String(), err)
	}
}

// -------- reports --------

func TestLedgerSummary_PassesFilter(t *testing.T) {
	var seen ledger.Filter
	lrepo := &ledgermock.Repo{SummaryFn: func(_ context.Context, f ledger.Filter) ([]ledger.TypeTotal, error) {
		seen = f
		return []ledger.TypeTotal{
			{TransactionType: ledger.TypeFeeCreated, Count: 2, Total: decimal.NewFromInt(900)},
			{TransactionType: ledger.TypeAdjustment, Count: 1, Total: decimal.NewFromInt(-100)},
		}, nil
	}}
	h := NewReportHandler(report.NewUsecase(lrepo, &repaymentmock.Repo{}, fixedNow))
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodGet, "/api/v1/reports/ledger-summary?application_id=3&from=2025-01-01&to=2025-02-01", nil)
	if err := h.LedgerSummary(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if seen.ApplicationID == nil || *seen.ApplicationID != 3 || seen.From == nil || seen.To == nil {
		t.Fatalf("filter not passed: %+v", seen)
	}
	var got report.LedgerSummary
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.EntryCount != 3 || !got.NetTotal.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestReports_BadQueryAndWindow(t *testing.T) {
	h := NewReportHandler(report.NewUsecase(&ledgermock.Repo{}, &repaymentmock.Repo{}, fixedNow))
	e := newEchoWithValidator()

	c, _ := newCtx(e, http.MethodGet, "/api/v1/reports/ledger-summary?from=yesterday", nil)
	if code := httpStatus(t, h.LedgerSummary(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}

	c, rec := newCtx(e, http.MethodGet, "/api/v1/reports/repayment-compliance?from=2025-03-01&to=2025-02-01", nil)
	_ = h.RepaymentCompliance(c)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestRepaymentCompliance_Rate(t *testing.T) {
	rrepo := &repaymentmock.Repo{ComplianceFn: func(context.Context, repayment.ComplianceFilter) (repayment.Compliance, error) {
		return repayment.Compliance{Total: 3, PaidOnTime: 2, PaidLate: 1}, nil
	}}
	h := NewReportHandler(report.NewUsecase(&ledgermock.Repo{}, rrepo, fixedNow))
	e := newEchoWithValidator()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/repayment-compliance", nil)
	rec := httptest.NewRecorder()
	if err := h.RepaymentCompliance(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var got struct {
		Total          int64  `json:"total"`
		ComplianceRate string `json:"compliance_rate"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Total != 3 || got.ComplianceRate != "66.67" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
