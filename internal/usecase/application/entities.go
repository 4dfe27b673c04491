package application

import (
	"time"

	"github.com/shopspring/decimal"

	"loancrm/internal/domain/application"
)

// CreateApplicationInput is kept small: only what the ledger and the
// escalation scans read.
type CreateApplicationInput struct {
	LoanAmount              decimal.Decimal
	InterestRate            decimal.Decimal
	LoanTerm                int
	RepaymentFrequency      application.Frequency
	RelationshipManagerID   *uint64
	BrokerID                *uint64
	EstimatedSettlementDate *time.Time
	BorrowerIDs             []uint64
}
