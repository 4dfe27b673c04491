// Package report serves the read-only ledger and repayment aggregates.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/ledger"
	"loancrm/internal/domain/repayment"
)

var ErrInvalidWindow = errors.New("report window end is before its start")

var hundred = decimal.NewFromInt(100)

type Usecase struct {
	ledger     ledger.Repository
	repayments repayment.Repository
	now        func() time.Time
}

func NewUsecase(l ledger.Repository, r repayment.Repository, now func() time.Time) *Usecase {
	if now == nil {
		now = time.Now
	}
	return &Usecase{ledger: l, repayments: r, now: now}
}

// Filter narrows a report to one application and/or a [From, To) window.
type Filter struct {
	ApplicationID *uint64
	From          *time.Time
	To            *time.Time
}

func (f Filter) validate() error {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return ErrInvalidWindow
	}
	return nil
}

type LedgerSummary struct {
	Types      []ledger.TypeTotal `json:"types"`
	EntryCount int64              `json:"entry_count"`
	NetTotal   decimal.Decimal    `json:"net_total"`
}

func (u *Usecase) LedgerSummary(ctx context.Context, f Filter) (*LedgerSummary, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	rows, err := u.ledger.Summary(ctx, ledger.Filter{ApplicationID: f.ApplicationID, From: f.From, To: f.To})
	if err != nil {
		return nil, err
	}
	out := &LedgerSummary{Types: rows, NetTotal: decimal.Zero}
	for _, r := range rows {
		out.EntryCount += r.Count
		out.NetTotal = out.NetTotal.Add(r.Total)
	}
	return out, nil
}

type Compliance struct {
	repayment.Compliance
	// ComplianceRate is the share of all repayments paid on or before their due date, in percent.
	ComplianceRate decimal.Decimal `json:"compliance_rate"`
}

// RepaymentCompliance filters on due date. Unpaid repayments due before today
// count as overdue.
func (u *Usecase) RepaymentCompliance(ctx context.Context, f Filter) (*Compliance, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	now := u.now().UTC()
	c, err := u.repayments.Compliance(ctx, repayment.ComplianceFilter{
		ApplicationID: f.ApplicationID,
		DueFrom:       f.From,
		DueTo:         f.To,
		AsOf:          time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return nil, err
	}
	out := &Compliance{Compliance: c, ComplianceRate: decimal.Zero}
	if c.Total > 0 {
		out.ComplianceRate = decimal.NewFromInt(c.PaidOnTime).Mul(hundred).Div(decimal.NewFromInt(c.Total)).Round(2)
	}
	return out, nil
}
