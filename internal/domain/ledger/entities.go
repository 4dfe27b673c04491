package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeFeeCreated         Type = "fee_created"
	TypeFeePaid            Type = "fee_paid"
	TypeRepaymentScheduled Type = "repayment_scheduled"
	TypeRepaymentReceived  Type = "repayment_received"
	TypeAdjustment         Type = "adjustment"
)

// Entry is append-only: rows are inserted and never updated or deleted.
type Entry struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"id"`
	ApplicationID      uint64          `gorm:"column:application_id;not null;index" json:"application_id"`
	TransactionType    Type            `gorm:"column:transaction_type;size:32;not null;index" json:"transaction_type"`
	Amount             decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Description        string          `gorm:"column:description;type:text" json:"description"`
	TransactionDate    time.Time       `gorm:"column:transaction_date;not null;index" json:"transaction_date"`
	RelatedFeeID       *uint64         `gorm:"column:related_fee_id;index" json:"related_fee_id,omitempty"`
	RelatedRepaymentID *uint64         `gorm:"column:related_repayment_id;index" json:"related_repayment_id,omitempty"`
	CreatedByID        *uint64         `gorm:"column:created_by_id" json:"created_by_id,omitempty"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Entry) TableName() string { return "ledger_entries" }

// TypeTotal is one row of a per-type ledger summary.
type TypeTotal struct {
	TransactionType Type            `json:"transaction_type"`
	Count           int64           `json:"count"`
	Total           decimal.Decimal `json:"total"`
}

type Filter struct {
	ApplicationID *uint64
	From          *time.Time
	To            *time.Time
}
