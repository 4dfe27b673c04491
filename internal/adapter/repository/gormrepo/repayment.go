package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"loancrm/internal/domain/claim"
	"loancrm/internal/domain/repayment"
)

type RepaymentRepository struct{ db *gorm.DB }

func NewRepaymentRepository(db *gorm.DB) *RepaymentRepository {
	return &RepaymentRepository{db: db}
}

func (r *RepaymentRepository) Create(ctx context.Context, rp *repayment.Repayment) error {
	return r.db.WithContext(ctx).Create(rp).Error
}

func (r *RepaymentRepository) Save(ctx context.Context, rp *repayment.Repayment) error {
	return r.db.WithContext(ctx).Save(rp).Error
}

func (r *RepaymentRepository) GetByID(ctx context.Context, id uint64) (*repayment.Repayment, error) {
	var out repayment.Repayment
	if err := r.db.WithContext(ctx).First(&out, id).Error; err != nil {
		return nil, notFound(err, repayment.ErrNotFound)
	}
	return &out, nil
}

func (r *RepaymentRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*repayment.Repayment, error) {
	var out repayment.Repayment
	if err := forUpdate(r.db.WithContext(ctx)).First(&out, id).Error; err != nil {
		return nil, notFound(err, repayment.ErrNotFound)
	}
	return &out, nil
}

func (r *RepaymentRepository) ListByApplication(ctx context.Context, applicationID uint64) ([]repayment.Repayment, error) {
	var out []repayment.Repayment
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("due_date, id").
		Find(&out).Error
	return out, err
}

func (r *RepaymentRepository) CountByApplication(ctx context.Context, applicationID uint64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&repayment.Repayment{}).
		Where("application_id = ?", applicationID).
		Count(&n).Error
	return n, err
}

func (r *RepaymentRepository) ListDueBetween(ctx context.Context, tier repayment.Tier, from, to time.Time) ([]repayment.Repayment, error) {
	col := tier.FlagColumn()
	if col == "" {
		return nil, fmt.Errorf("unknown tier %q", tier)
	}
	var out []repayment.Repayment
	err := r.db.WithContext(ctx).
		Where("paid_date IS NULL AND due_date >= ? AND due_date < ?", from, to).
		Where(col+" = ?", false).
		Order("id").
		Find(&out).Error
	return out, err
}

// WithTierClaim runs "UPDATE ... SET flag = true WHERE flag = false" and checks the
// affected row count, so two overlapping runs can never both own the same tier.
// The row stays locked by the update until send returns.
func (r *RepaymentRepository) WithTierClaim(ctx context.Context, id uint64, tier repayment.Tier, send func() bool) (claim.Result, error) {
	col := tier.FlagColumn()
	if col == "" {
		return claim.Lost, fmt.Errorf("unknown tier %q", tier)
	}
	result := claim.Lost
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&repayment.Repayment{}).
			Where("id = ? AND paid_date IS NULL", id).
			Where(col+" = ?", false).
			UpdateColumn(col, true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if !send() {
			result = claim.Abandoned
			return errAbandon
		}
		result = claim.Committed
		return nil
	})
	switch {
	case errors.Is(err, errAbandon):
		return claim.Abandoned, nil
	case err != nil:
		return claim.Lost, err
	}
	return result, nil
}

type complianceRow struct {
	DueDate  time.Time
	PaidDate *time.Time
}

// Compliance is aggregated in Go so the same query works on every supported driver.
func (r *RepaymentRepository) Compliance(ctx context.Context, f repayment.ComplianceFilter) (repayment.Compliance, error) {
	q := r.db.WithContext(ctx).Model(&repayment.Repayment{}).Select("due_date, paid_date")
	if f.ApplicationID != nil {
		q = q.Where("application_id = ?", *f.ApplicationID)
	}
	if f.DueFrom != nil {
		q = q.Where("due_date >= ?", *f.DueFrom)
	}
	if f.DueTo != nil {
		q = q.Where("due_date < ?", *f.DueTo)
	}
	var rows []complianceRow
	if err := q.Scan(&rows).Error; err != nil {
		return repayment.Compliance{}, err
	}

	var out repayment.Compliance
	var daysLate int64
	for _, row := range rows {
		out.Total++
		switch {
		case row.PaidDate == nil:
			out.Outstanding++
			if row.DueDate.Before(f.AsOf) {
				out.Overdue++
			}
		case row.PaidDate.After(row.DueDate):
			out.PaidLate++
			daysLate += int64(row.PaidDate.Sub(row.DueDate).Hours() / 24)
		default:
			out.PaidOnTime++
		}
	}
	if out.PaidLate > 0 {
		out.AvgDaysLate = float64(daysLate) / float64(out.PaidLate)
	}
	return out, nil
}
