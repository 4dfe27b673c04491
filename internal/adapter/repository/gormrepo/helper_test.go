package gormrepo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"loancrm/internal/domain/application"
	"loancrm/internal/domain/fee"
	"loancrm/internal/domain/ledger"
	"loancrm/internal/domain/note"
	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/preference"
	"loancrm/internal/domain/reminder"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/user"
	"loancrm/pkg/id"
)

// openTestDB creates an in-memory sqlite DB with the full schema.
// A single connection keeps every query on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&user.User{},
		&application.Application{},
		&application.Borrower{},
		&fee.Fee{},
		&repayment.Repayment{},
		&ledger.Entry{},
		&note.Note{},
		&reminder.Reminder{},
		&notification.Notification{},
		&preference.Preferences{},
	); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustApplication(t *testing.T, db *gorm.DB, stage application.Stage) *application.Application {
	t.Helper()
	a := &application.Application{
		Reference:          id.NewReference("APP"),
		Stage:              stage,
		LoanAmount:         dec("500000"),
		InterestRate:       dec("4.5"),
		LoanTerm:           360,
		RepaymentFrequency: application.FrequencyMonthly,
	}
	if err := NewApplicationRepository(db).Create(context.Background(), a); err != nil {
		t.Fatalf("create application: %v", err)
	}
	return a
}

func mustRepayment(t *testing.T, db *gorm.DB, appID uint64, due time.Time) *repayment.Repayment {
	t.Helper()
	rp := &repayment.Repayment{ApplicationID: appID, Amount: dec("1000.00"), DueDate: due}
	if err := NewRepaymentRepository(db).Create(context.Background(), rp); err != nil {
		t.Fatalf("create repayment: %v", err)
	}
	return rp
}
