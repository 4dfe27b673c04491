package fee

import (
	"time"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/fee"
)

type CreateFeeInput struct {
	ApplicationID uint64          `json:"application_id"`
	FeeType       fee.Type        `json:"fee_type"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
}

// standardFees are created together for a freshly approved application,
// each due one week after the previous one.
var standardFees = []struct {
	Type        fee.Type
	Description string
	Amount      int64
}{
	{fee.TypeApplication, "Application processing fee", 500},
	{fee.TypeValuation, "Property valuation fee", 800},
	{fee.TypeLegal, "Legal documentation fee", 1200},
	{fee.TypeSettlement, "Settlement fee", 300},
}
