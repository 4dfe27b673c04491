package repayment

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateRepaymentInput struct {
	ApplicationID uint64          `json:"application_id"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
}
