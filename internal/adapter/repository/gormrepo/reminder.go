package gormrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"loancrm/internal/domain/claim"
	"loancrm/internal/domain/reminder"
)

type ReminderRepository struct{ db *gorm.DB }

func NewReminderRepository(db *gorm.DB) *ReminderRepository { return &ReminderRepository{db: db} }

func (r *ReminderRepository) Create(ctx context.Context, rm *reminder.Reminder) error {
	return r.db.WithContext(ctx).Create(rm).Error
}

func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time) ([]reminder.Reminder, error) {
	var out []reminder.Reminder
	err := r.db.WithContext(ctx).
		Where("is_sent = ? AND send_at <= ?", false, now).
		Order("send_at, id").
		Find(&out).Error
	return out, err
}

func (r *ReminderRepository) WithSendClaim(ctx context.Context, id uint64, now time.Time, send func() error) (claim.Result, error) {
	var sendErr error
	result := claim.Lost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&reminder.Reminder{}).
			Where("id = ? AND is_sent = ?", id, false).
			UpdateColumns(map[string]any{"is_sent": true, "sent_at": now, "error_message": ""})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if sendErr = send(); sendErr != nil {
			return errAbandon
		}
		result = claim.Committed
		return nil
	})
	switch {
	case errors.Is(err, errAbandon):
		rec := r.db.WithContext(ctx).Model(&reminder.Reminder{}).
			Where("id = ? AND is_sent = ?", id, false).
			UpdateColumn("error_message", sendErr.Error())
		return claim.Abandoned, rec.Error
	case err != nil:
		return claim.Lost, err
	}
	return result, nil
}
