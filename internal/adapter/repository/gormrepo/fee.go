package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"loancrm/internal/domain/fee"
)

type FeeRepository struct{ db *gorm.DB }

func NewFeeRepository(db *gorm.DB) *FeeRepository { return &FeeRepository{db: db} }

func (r *FeeRepository) Create(ctx context.Context, f *fee.Fee) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FeeRepository) Save(ctx context.Context, f *fee.Fee) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *FeeRepository) GetByID(ctx context.Context, id uint64) (*fee.Fee, error) {
	var out fee.Fee
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, fee.ErrNotFound)
	}
	return &out, nil
}

func (r *FeeRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*fee.Fee, error) {
	var out fee.Fee
	if err := forUpdate(r.db.WithContext(ctx)).First(&out, id).Error; err != nil {
		return nil, notFound(err, fee.ErrNotFound)
	}
	return &out, nil
}

func (r *FeeRepository) ListByApplication(ctx context.Context, applicationID uint64) ([]fee.Fee, error) {
	var out []fee.Fee
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("due_date, id").
		Find(&out).Error
	return out, err
}
