package fee

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound    = errors.New("fee not found")
	ErrInvalidType = errors.New("invalid fee type")
)

type Type string

const (
	TypeApplication Type = "application"
	TypeValuation   Type = "valuation"
	TypeLegal       Type = "legal"
	TypeBroker      Type = "broker"
	TypeSettlement  Type = "settlement"
	TypeOther       Type = "other"
)

var typeDisplay = map[Type]string{
	TypeApplication: "Application Fee",
	TypeValuation:   "Valuation Fee",
	TypeLegal:       "Legal Fee",
	TypeBroker:      "Broker Fee",
	TypeSettlement:  "Settlement Fee",
	TypeOther:       "Other Fee",
}

func (t Type) Valid() bool { _, ok := typeDisplay[t]; return ok }

// Display is the human label used in ledger descriptions.
func (t Type) Display() string {
	if d, ok := typeDisplay[t]; ok {
		return d
	}
	return string(t)
}

type Fee struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"id"`
	ApplicationID uint64          `gorm:"column:application_id;not null;index" json:"application_id"`
	FeeType       Type            `gorm:"column:fee_type;size:32;not null" json:"fee_type"`
	Description   string          `gorm:"column:description;type:text" json:"description,omitempty"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	DueDate       time.Time       `gorm:"column:due_date;type:date;index" json:"due_date"`
	PaidDate      *time.Time      `gorm:"column:paid_date;type:date" json:"paid_date,omitempty"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Fee) TableName() string { return "fees" }

func (f Fee) Paid() bool { return f.PaidDate != nil }
