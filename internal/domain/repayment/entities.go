package repayment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("repayment not found")
	ErrScheduleExists = errors.New("repayment schedule already exists for application")
)

// Tier is one escalation threshold evaluated against a repayment's due date.
type Tier string

const (
	TierUpcoming  Tier = "upcoming"
	TierOverdue3  Tier = "overdue_3"
	TierOverdue7  Tier = "overdue_7"
	TierOverdue10 Tier = "overdue_10"
)

// Tiers in the order a repayment passes through them.
var Tiers = []Tier{TierUpcoming, TierOverdue3, TierOverdue7, TierOverdue10}

// FlagColumn is the one-shot flag guarding the tier.
func (t Tier) FlagColumn() string {
	switch t {
	case TierUpcoming:
		return "reminder_sent"
	case TierOverdue3:
		return "overdue_3_day_sent"
	case TierOverdue7:
		return "overdue_7_day_sent"
	case TierOverdue10:
		return "overdue_10_day_sent"
	}
	return ""
}

func (t Tier) Valid() bool { return t.FlagColumn() != "" }

type Repayment struct {
	ID               uint64          `gorm:"primaryKey;column:id" json:"id"`
	ApplicationID    uint64          `gorm:"column:application_id;not null;index" json:"application_id"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	DueDate          time.Time       `gorm:"column:due_date;type:date;index" json:"due_date"`
	PaidDate         *time.Time      `gorm:"column:paid_date;type:date" json:"paid_date,omitempty"`
	ReminderSent     bool            `gorm:"column:reminder_sent;not null;default:false" json:"reminder_sent"`
	Overdue3DaySent  bool            `gorm:"column:overdue_3_day_sent;not null;default:false" json:"overdue_3_day_sent"`
	Overdue7DaySent  bool            `gorm:"column:overdue_7_day_sent;not null;default:false" json:"overdue_7_day_sent"`
	Overdue10DaySent bool            `gorm:"column:overdue_10_day_sent;not null;default:false" json:"overdue_10_day_sent"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Repayment) TableName() string { return "repayments" }

func (r Repayment) Paid() bool { return r.PaidDate != nil }

// Flag reports the current value of the tier's one-shot flag.
func (r Repayment) Flag(t Tier) bool {
	switch t {
	case TierUpcoming:
		return r.ReminderSent
	case TierOverdue3:
		return r.Overdue3DaySent
	case TierOverdue7:
		return r.Overdue7DaySent
	case TierOverdue10:
		return r.Overdue10DaySent
	}
	return false
}

// Compliance aggregates paid-status over a set of repayments.
type Compliance struct {
	Total       int64   `json:"total"`
	PaidOnTime  int64   `json:"paid_on_time"`
	PaidLate    int64   `json:"paid_late"`
	Outstanding int64   `json:"outstanding"`
	Overdue     int64   `json:"overdue"`
	AvgDaysLate float64 `json:"avg_days_late"`
}

type ComplianceFilter struct {
	ApplicationID *uint64
	DueFrom       *time.Time
	DueTo         *time.Time
	// AsOf decides which unpaid repayments count as overdue.
	AsOf time.Time
}
