// Package app wires the service's adapters and usecases from configuration.
// Both binaries build on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"loancrm/internal/adapter/email"
	httpadp "loancrm/internal/adapter/http"
	"loancrm/internal/adapter/realtime"
	"loancrm/internal/adapter/repository/gormrepo"
	"loancrm/internal/config"
	"loancrm/internal/infrastructure/cache"
	"loancrm/internal/infrastructure/db"
	"loancrm/internal/logging"
	appuc "loancrm/internal/usecase/application"
	"loancrm/internal/usecase/escalation"
	feeuc "loancrm/internal/usecase/fee"
	ledgeruc "loancrm/internal/usecase/ledger"
	notifyuc "loancrm/internal/usecase/notification"
	prefuc "loancrm/internal/usecase/preference"
	repaymentuc "loancrm/internal/usecase/repayment"
	"loancrm/internal/usecase/report"
)

// ErrEscalationUnsupported is returned for SQLite, whose single writer would
// deadlock against the notification writes a run makes while holding a tier claim.
var ErrEscalationUnsupported = errors.New("escalation runs need mysql or postgres")

type App struct {
	Cfg      *config.Config
	Log      logging.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Handlers httpadp.Handlers
	// Escalation is nil when the driver cannot host a run.
	Escalation escalation.Scheduler
}

// New opens the database and Redis, applies migrations and builds every usecase.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}
	if err := db.Migrate(ctx, gdb, cfg.DBDriver); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return nil, err
	}

	now := time.Now
	apps := gormrepo.NewApplicationRepository(gdb)
	fees := gormrepo.NewFeeRepository(gdb)
	repayments := gormrepo.NewRepaymentRepository(gdb)
	entries := gormrepo.NewLedgerRepository(gdb)
	notes := gormrepo.NewNoteRepository(gdb)
	reminders := gormrepo.NewReminderRepository(gdb)
	users := gormrepo.NewUserRepository(gdb)
	notifications := gormrepo.NewNotificationRepository(gdb)
	tx := gormrepo.NewGormUoW(gdb)

	poster := ledgeruc.NewPoster(now)
	prefs := prefuc.NewStore(gormrepo.NewPreferenceRepository(gdb))
	pusher := realtime.NewRedisPusher(rdb)
	mailer := email.NewSMTPMailer(cfg.SMTP)
	dispatcher := notifyuc.NewDispatcher(notifications, prefs, users, pusher, mailer,
		notifyuc.DispatcherConfig{ChannelTimeout: cfg.ChannelTimeout}, log)

	a := &App{Cfg: cfg, Log: log, DB: gdb, Redis: rdb}
	a.Handlers = httpadp.Handlers{
		Health: httpadp.NewHandler(
			httpadp.Check{Name: "database", Ping: func(ctx context.Context) error { return db.Ping(ctx, gdb) }},
			httpadp.Check{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		),
		Applications:  httpadp.NewApplicationHandler(appuc.NewUsecase(apps, users, tx, dispatcher, log, now)),
		Fees:          httpadp.NewFeeHandler(feeuc.NewUsecase(fees, tx, poster, now)),
		Repayments:    httpadp.NewRepaymentHandler(repaymentuc.NewUsecase(repayments, tx, poster, now)),
		Ledger:        httpadp.NewLedgerHandler(ledgeruc.NewUsecase(entries, tx, poster)),
		Reports:       httpadp.NewReportHandler(report.NewUsecase(entries, repayments, now)),
		Notifications: httpadp.NewNotificationHandler(notifyuc.NewInbox(notifications, pusher, log, now), prefs, pusher),
	}

	if cfg.DBDriver == config.DriverSQLite {
		log.Warn(ctx, "escalation disabled", "reason", ErrEscalationUnsupported.Error())
		return a, nil
	}
	a.Escalation = escalation.NewEngine(escalation.Deps{
		Applications: apps,
		Repayments:   repayments,
		Notes:        notes,
		Reminders:    reminders,
		Users:        users,
		Notifier:     dispatcher,
		Mailer:       mailer,
		Locker:       cache.NewLocker(rdb),
	}, escalation.Config{
		UpcomingDays: cfg.Escalation.UpcomingDays,
		StaleDays:    cfg.Escalation.StaleDays,
		Workers:      cfg.Escalation.Workers,
		Location:     cfg.Location(),
		LockTTL:      cfg.Escalation.LockTTL,
		DefaultFrom:  cfg.SMTP.From,
	}, log)
	a.Handlers.Escalation = httpadp.NewEscalationHandler(a.Escalation, cfg.Location(), now)
	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
