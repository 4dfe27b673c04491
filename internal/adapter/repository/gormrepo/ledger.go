package gormrepo

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"loancrm/internal/domain/ledger"
)

type LedgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) *LedgerRepository { return &LedgerRepository{db: db} }

func (r *LedgerRepository) Create(ctx context.Context, e *ledger.Entry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *LedgerRepository) ListByApplication(ctx context.Context, applicationID uint64) ([]ledger.Entry, error) {
	var out []ledger.Entry
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("transaction_date DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *LedgerRepository) CountByRelatedFee(ctx context.Context, feeID uint64, t ledger.Type) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ledger.Entry{}).
		Where("related_fee_id = ? AND transaction_type = ?", feeID, t).
		Count(&n).Error
	return n, err
}

func (r *LedgerRepository) CountByRelatedRepayment(ctx context.Context, repaymentID uint64, t ledger.Type) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ledger.Entry{}).
		Where("related_repayment_id = ? AND transaction_type = ?", repaymentID, t).
		Count(&n).Error
	return n, err
}

type typeTotalRow struct {
	TransactionType string
	Count           int64
	Total           decimal.Decimal
}

func (r *LedgerRepository) Summary(ctx context.Context, f ledger.Filter) ([]ledger.TypeTotal, error) {
	q := r.db.WithContext(ctx).Model(&ledger.Entry{}).
		Select("transaction_type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total")
	if f.ApplicationID != nil {
		q = q.Where("application_id = ?", *f.ApplicationID)
	}
	if f.From != nil {
		q = q.Where("transaction_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("transaction_date < ?", *f.To)
	}
	var rows []typeTotalRow
	if err := q.Group("transaction_type").Order("transaction_type").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ledger.TypeTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, ledger.TypeTotal{
			TransactionType: ledger.Type(row.TransactionType),
			Count:           row.Count,
			Total:           row.Total,
		})
	}
	return out, nil
}
