package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"loancrm/internal/domain/application"
)

type ApplicationRepository struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *ApplicationRepository) Save(ctx context.Context, a *application.Application) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uint64) (*application.Application, error) {
	var out application.Application
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, application.ErrNotFound)
	}
	return &out, nil
}

func (r *ApplicationRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*application.Application, error) {
	var out application.Application
	if err := forUpdate(r.db.WithContext(ctx)).First(&out, id).Error; err != nil {
		return nil, notFound(err, application.ErrNotFound)
	}
	return &out, nil
}

func (r *ApplicationRepository) AddBorrower(ctx context.Context, applicationID, userID uint64) error {
	return r.db.WithContext(ctx).Create(&application.Borrower{ApplicationID: applicationID, UserID: userID}).Error
}

func (r *ApplicationRepository) BorrowerUserIDs(ctx context.Context, applicationID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&application.Borrower{}).
		Where("application_id = ?", applicationID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ApplicationRepository) ListStale(ctx context.Context, cutoff time.Time) ([]application.Application, error) {
	var out []application.Application
	err := r.db.WithContext(ctx).
		Where("stage NOT IN ? AND updated_at < ?", application.TerminalStages, cutoff).
		Order("updated_at, id").
		Find(&out).Error
	return out, err
}

func (r *ApplicationRepository) ListStagnant(ctx context.Context, cutoff time.Time) ([]application.Application, error) {
	var out []application.Application
	err := r.db.WithContext(ctx).
		Where("stage NOT IN ? AND stage_updated_at < ?", application.TerminalStages, cutoff).
		Order("stage_updated_at, id").
		Find(&out).Error
	return out, err
}
