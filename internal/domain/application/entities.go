package application

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("application not found")
	ErrInvalidStage      = errors.New("invalid application stage")
	ErrIncompleteTerms   = errors.New("application is missing loan amount, term or frequency")
	ErrInvalidTransition = errors.New("application stage unchanged")
)

type Stage string

const (
	StageInquiry        Stage = "inquiry"
	StagePreApproval    Stage = "pre_approval"
	StageValuation      Stage = "valuation"
	StageFormalApproval Stage = "formal_approval"
	StageSettlement     Stage = "settlement"
	StageFunded         Stage = "funded"
	StageDeclined       Stage = "declined"
	StageWithdrawn      Stage = "withdrawn"
)

var stageDisplay = map[Stage]string{
	StageInquiry:        "Inquiry",
	StagePreApproval:    "Pre-Approval",
	StageValuation:      "Valuation",
	StageFormalApproval: "Formal Approval",
	StageSettlement:     "Settlement",
	StageFunded:         "Funded",
	StageDeclined:       "Declined",
	StageWithdrawn:      "Withdrawn",
}

// TerminalStages are never reported as stale or stagnant.
var TerminalStages = []Stage{StageFunded, StageDeclined, StageWithdrawn}

func (s Stage) Valid() bool { _, ok := stageDisplay[s]; return ok }

func (s Stage) Display() string {
	if d, ok := stageDisplay[s]; ok {
		return d
	}
	return string(s)
}

func (s Stage) Terminal() bool {
	for _, t := range TerminalStages {
		if s == t {
			return true
		}
	}
	return false
}

type Frequency string

const (
	FrequencyWeekly      Frequency = "weekly"
	FrequencyFortnightly Frequency = "fortnightly"
	FrequencyMonthly     Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyFortnightly, FrequencyMonthly:
		return true
	}
	return false
}

type Application struct {
	ID                      uint64          `gorm:"primaryKey;column:id" json:"id"`
	Reference               string          `gorm:"column:reference;size:32;uniqueIndex" json:"reference"`
	Stage                   Stage           `gorm:"column:stage;size:32;not null;default:inquiry;index" json:"stage"`
	LoanAmount              decimal.Decimal `gorm:"column:loan_amount;type:decimal(14,2)" json:"loan_amount"`
	InterestRate            decimal.Decimal `gorm:"column:interest_rate;type:decimal(7,4)" json:"interest_rate"`
	LoanTerm                int             `gorm:"column:loan_term" json:"loan_term"`
	RepaymentFrequency      Frequency       `gorm:"column:repayment_frequency;size:16;default:monthly" json:"repayment_frequency"`
	RelationshipManagerID   *uint64         `gorm:"column:relationship_manager_id;index" json:"relationship_manager_id,omitempty"`
	BrokerID                *uint64         `gorm:"column:broker_id;index" json:"broker_id,omitempty"`
	EstimatedSettlementDate *time.Time      `gorm:"column:estimated_settlement_date;type:date" json:"estimated_settlement_date,omitempty"`
	StageUpdatedAt          time.Time       `gorm:"column:stage_updated_at;autoCreateTime" json:"stage_updated_at"`
	CreatedAt               time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Application) TableName() string { return "applications" }

// Borrower links a client user to the application they borrow under.
type Borrower struct {
	ApplicationID uint64 `gorm:"column:application_id;primaryKey"`
	UserID        uint64 `gorm:"column:user_id;primaryKey;index"`
}

func (Borrower) TableName() string { return "application_borrowers" }
