package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"loancrm/internal/config"
	"loancrm/internal/domain/application"
	"loancrm/internal/domain/fee"
	"loancrm/internal/domain/ledger"
	"loancrm/internal/domain/note"
	"loancrm/internal/domain/notification"
	"loancrm/internal/domain/preference"
	"loancrm/internal/domain/reminder"
	"loancrm/internal/domain/repayment"
	"loancrm/internal/domain/user"
)

//go:embed migrations
var migrations embed.FS

// Models lists every table owned by the service.
func Models() []any {
	return []any{
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
	}
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded goose migrations for mysql and postgres.
// SQLite has no hand-written migrations and is brought up with AutoMigrate.
func Migrate(ctx context.Context, gdb *gorm.DB, driver string) error {
	if driver == config.DriverSQLite {
		return gdb.WithContext(ctx).AutoMigrate(Models()...)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, sqlDB, "migrations/"+driver)
}
