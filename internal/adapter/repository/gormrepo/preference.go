package gormrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loancrm/internal/domain/preference"
)

type PreferenceRepository struct{ db *gorm.DB }

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) GetByUserID(ctx context.Context, userID uint64) (*preference.Preferences, error) {
	var out preference.Preferences
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&out).Error; err != nil {
		return nil, notFound(err, preference.ErrNotFound)
	}
	return &out, nil
}

// Create tolerates a concurrent first access: a racing insert for the same user is dropped.
func (r *PreferenceRepository) Create(ctx context.Context, p *preference.Preferences) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(p).Error
}

func (r *PreferenceRepository) Save(ctx context.Context, p *preference.Preferences) error {
	return r.db.WithContext(ctx).Save(p).Error
}
