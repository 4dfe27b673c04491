package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"loancrm/internal/domain/note"
)

type NoteRepository struct{ db *gorm.DB }

func NewNoteRepository(db *gorm.DB) *NoteRepository { return &NoteRepository{db: db} }

func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NoteRepository) ListRemindBetween(ctx context.Context, from, to time.Time) ([]note.Note, error) {
	var out []note.Note
	err := r.db.WithContext(ctx).
		Where("remind_date >= ? AND remind_date < ?", from, to).
		Order("id").
		Find(&out).Error
	return out, err
}
