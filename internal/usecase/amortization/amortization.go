// Package amortization computes flat repayment schedules.
//
// The schedule is non-amortizing: every installment carries the same amount
// and no principal/interest split is produced.
package amortization

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/application"
)

var ErrInvalidSchedule = errors.New("invalid repayment schedule")

// working precision for the compounding factor
const factorPlaces = 24

var periodsPerYear = map[application.Frequency]int64{
	application.FrequencyWeekly:      52,
	application.FrequencyFortnightly: 26,
	application.FrequencyMonthly:     12,
}

type Installment struct {
	Number int             `json:"number"`
	Amount decimal.Decimal `json:"amount"`
}

// Schedule returns exactly periods installments.
//
// With a zero rate the principal is split evenly and the rounding residual is
// added to the last installment, so the amounts sum to principal. Otherwise each
// installment is the fixed annuity payment P*r/(1-(1+r)^-n) rounded to cents,
// where r is the nominal annual rate divided by the number of periods per year.
// Negative principal or rate is not validated here.
func Schedule(principal, annualRatePercent decimal.Decimal, periods int, freq application.Frequency) ([]Installment, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("%w: periods must be positive, got %d", ErrInvalidSchedule, periods)
	}
	perYear, ok := periodsPerYear[freq]
	if !ok {
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidSchedule, freq)
	}

	out := make([]Installment, periods)
	n := decimal.NewFromInt(int64(periods))

	if annualRatePercent.IsZero() {
		base := principal.Div(n).Round(2)
		for i := range out {
			out[i] = Installment{Number: i + 1, Amount: base}
		}
		residual := principal.Sub(base.Mul(n))
		out[periods-1].Amount = base.Add(residual)
		return out, nil
	}

	rate := annualRatePercent.Div(decimal.NewFromInt(100)).Div(decimal.NewFromInt(perYear))
	// (1+r)^n ; payment = P*r*f/(f-1) is the same annuity without the negative power
	factor := powInt(decimal.NewFromInt(1).Add(rate), periods, factorPlaces)
	denom := factor.Sub(decimal.NewFromInt(1))
	if denom.IsZero() {
		return nil, fmt.Errorf("%w: rate %s%% yields no compounding", ErrInvalidSchedule, annualRatePercent)
	}
	payment := principal.Mul(rate).Mul(factor).Div(denom).Round(2)
	for i := range out {
		out[i] = Installment{Number: i + 1, Amount: payment}
	}
	return out, nil
}

// powInt is exponentiation by squaring with every product rounded to places.
// Exact decimal powers grow by one rate-length per multiply, which is unbounded
// for long weekly terms.
func powInt(base decimal.Decimal, exp int, places int32) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = result.Mul(base).Round(places)
		}
		exp >>= 1
		if exp > 0 {
			base = base.Mul(base).Round(places)
		}
	}
	return result
}

// Total sums the installment amounts.
func Total(in []Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, i := range in {
		sum = sum.Add(i.Amount)
	}
	return sum
}

// DueDates returns one due date per installment, the first falling on anchor.
// Monthly dates keep the anchor's day of month, clamped to the month's last day.
func DueDates(anchor time.Time, freq application.Frequency, periods int) ([]time.Time, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("%w: periods must be positive, got %d", ErrInvalidSchedule, periods)
	}
	anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	out := make([]time.Time, periods)
	for i := range out {
		switch freq {
		case application.FrequencyWeekly:
			out[i] = anchor.AddDate(0, 0, 7*i)
		case application.FrequencyFortnightly:
			out[i] = anchor.AddDate(0, 0, 14*i)
		case application.FrequencyMonthly:
			out[i] = addMonthsClamped(anchor, i)
		default:
			return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidSchedule, freq)
		}
	}
	return out, nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	d := t.Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}
