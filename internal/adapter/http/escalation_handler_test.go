package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loancrm/internal/domain/user"
	"loancrm/internal/usecase/escalation"
)

type fakeScheduler struct {
	calls []time.Time
	err   error
}

func (s *fakeScheduler) Run(_ context.Context, now time.Time) (escalation.Report, error) {
	s.calls = append(s.calls, now)
	if s.err != nil {
		return escalation.Report{}, s.err
	}
	return escalation.Report{
		Date: now.Format(time.DateOnly),
		Scans: map[escalation.Scan]escalation.ScanReport{
			escalation.ScanOverdue3: {Candidates: 2, Dispatched: 1, Skipped: 1},
			escalation.ScanStale:    {Candidates: 1, Failed: 1},
		},
	}, nil
}

func TestEscalationRun_Today(t *testing.T) {
	s := &fakeScheduler{}
	h := NewEscalationHandler(s, time.UTC, fixedNow)
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodPost, "/api/v1/admin/escalation/run", nil)
	if err := h.Run(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(s.calls) != 1 || !s.calls[0].Equal(handlerNow) {
		t.Fatalf("unexpected calls: %v", s.calls)
	}
	var body struct {
		Report escalation.Report     `json:"report"`
		Totals escalation.ScanReport `json:"totals"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Totals.Candidates != 3 || body.Totals.Failed != 1 || body.Report.Date != "2025-03-10" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestEscalationRun_ReplaysDateAtCurrentClock(t *testing.T) {
	s := &fakeScheduler{}
	h := NewEscalationHandler(s, time.UTC, fixedNow)
	e := newEchoWithValidator()

	c, rec := newCtx(e, http.MethodPost, "/api/v1/admin/escalation/run", mustJSON(map[string]string{"date": "2025-04-01"}))
	_ = h.Run(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := time.Date(2025, 4, 1, 14, 0, 0, 0, time.UTC)
	if len(s.calls) != 1 || !s.calls[0].Equal(want) {
		t.Fatalf("ran at %v, want %v", s.calls, want)
	}
}

func TestEscalationRun_BadDateAndBusy(t *testing.T) {
	e := newEchoWithValidator()

	s := &fakeScheduler{}
	h := NewEscalationHandler(s, time.UTC, fixedNow)
	c, rec := newCtx(e, http.MethodPost, "/api/v1/admin/escalation/run", mustJSON(map[string]string{"date": "01/04/2025"}))
	_ = h.Run(c)
	if rec.Code != http.StatusUnprocessableEntity || len(s.calls) != 0 {
		t.Fatalf("expected 422 without a run, got %d (%d calls)", rec.Code, len(s.calls))
	}

	h = NewEscalationHandler(&fakeScheduler{err: escalation.ErrRunInProgress}, time.UTC, fixedNow)
	c, rec = newCtx(e, http.MethodPost, "/api/v1/admin/escalation/run", nil)
	_ = h.Run(c)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

// -------- routing --------

func TestRegisterRoutes_AdminOnlyAndOptionalEscalation(t *testing.T) {
	s := &fakeScheduler{}
	e := newEchoWithValidator()
	RegisterRoutes(e, Handlers{
		Health:     &Handler{},
		Escalation: NewEscalationHandler(s, time.UTC, fixedNow),
	}, headerAuth)

	do := func(uid, role string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/escalation/run", nil)
		req.Header.Set("X-User-Id", uid)
		req.Header.Set("X-Role", role)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}
	if code := do("5", string(user.RoleBroker)); code != http.StatusForbidden {
		t.Fatalf("broker: expected 403, got %d", code)
	}
	if code := do("1", string(user.RoleAdmin)); code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", code)
	}
	if len(s.calls) != 1 {
		t.Fatalf("scheduler calls = %d", len(s.calls))
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health: %d %s", rec.Code, rec.Body.String())
	}

	bare := newEchoWithValidator()
	RegisterRoutes(bare, Handlers{Health: &Handler{}}, headerAuth)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/escalation/run", nil)
	rec = httptest.NewRecorder()
	bare.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("escalation route mounted without handler: %d", rec.Code)
	}
}
