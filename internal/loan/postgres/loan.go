package postgres

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDatamodel "github.com/edulend/loan-management/internal/core/datamodel/loan"
	"github.com/edulend/loan-management/internal/loan"
)

type LoanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.LoanApplication) error {
	dm := loan.ToDataModel(l)
	return r.db.WithContext(ctx).Create(dm).Error
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.LoanApplication, error) {
	var dm loanDatamodel.LoanApplication
	err := r.db.WithContext(ctx).
		Preload("Repayments", func(db *gorm.DB) *gorm.DB {
			return db.Order("repayments.id ASC")
		}).
		Where("id = ?", id).
		First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, loan.ErrLoanNotFound
		}
		return nil, err
	}
	return loan.FromDataModel(&dm), nil
}

func (r *LoanRepository) GetByUserID(ctx context.Context, userID string) ([]*loan.LoanApplication, error) {
	var dms []*loanDatamodel.LoanApplication
	err := r.db.WithContext(ctx).
		Preload("Repayments", func(db *gorm.DB) *gorm.DB {
			return db.Order("repayments.id ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return loan.FromDataModelSlice(dms), nil
}

// Save persists the loan row itself. Repayment rows are append-only and only
// ever written through RecordPayment, so associations are skipped here.
func (r *LoanRepository) Save(ctx context.Context, l *loan.LoanApplication) error {
	dm := loan.ToDataModel(l)
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Save(dm).Error
}

func (r *LoanRepository) ListByStatus(ctx context.Context, status *loan.Status, limit, offset int) ([]*loan.LoanApplication, error) {
	query := r.db.WithContext(ctx).
		Preload("Repayments", func(db *gorm.DB) *gorm.DB {
			return db.Order("repayments.id ASC")
		}).
		Order("created_at DESC")

	if status != nil {
		query = query.Where("status = ?", string(*status))
	}
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	var dms []*loanDatamodel.LoanApplication
	if err := query.Find(&dms).Error; err != nil {
		return nil, err
	}
	return loan.FromDataModelSlice(dms), nil
}

func (r *LoanRepository) CountByStatus(ctx context.Context) (map[loan.Status]int64, error) {
	type statusCount struct {
		Status string
		Total  int64
	}

	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&loanDatamodel.LoanApplication{}).
		Select("status, count(*) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[loan.Status]int64, len(rows))
	for _, row := range rows {
		counts[loan.Status(row.Status)] = row.Total
	}
	return counts, nil
}

func (r *LoanRepository) SumOutstandingBalance(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&loanDatamodel.LoanApplication{}).
		Select("coalesce(sum(remaining_balance), 0) as total").
		Where("status = ?", string(loan.StatusApproved)).
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// RecordPayment serializes concurrent payments against the same loan. The
// loan row is locked for the duration of the transaction, the apply callback
// validates and mutates the aggregate, and the new repayment row plus the
// updated loan are written atomically. SQLite has no row locks but also runs
// single-writer, so the lock clause is only added on postgres.
func (r *LoanRepository) RecordPayment(ctx context.Context, loanID string, apply func(l *loan.LoanApplication) (*loan.Repayment, error)) (*loan.LoanApplication, *loan.Repayment, error) {
	var (
		updated   *loan.LoanApplication
		repayment *loan.Repayment
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.
			Preload("Repayments", func(db *gorm.DB) *gorm.DB {
				return db.Order("repayments.id ASC")
			}).
			Where("id = ?", loanID)

		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var dm loanDatamodel.LoanApplication
		if err := query.First(&dm).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return loan.ErrLoanNotFound
			}
			return err
		}

		l := loan.FromDataModel(&dm)

		rp, err := apply(l)
		if err != nil {
			return err
		}

		row := loanDatamodel.Repayment{
			LoanID:        loanID,
			AmountPaid:    rp.AmountPaid,
			PaymentMethod: rp.PaymentMethod,
			ReceiptNumber: rp.ReceiptNumber,
			PaidAt:        rp.PaidAt,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		rp.ID = row.ID

		updatedDM := loan.ToDataModel(l)
		if err := tx.Omit(clause.Associations).Save(updatedDM).Error; err != nil {
			return err
		}

		updated = l
		repayment = rp
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return updated, repayment, nil
}
