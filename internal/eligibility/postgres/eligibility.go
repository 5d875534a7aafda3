package postgres

import (
	"context"

	"gorm.io/gorm"

	documentDatamodel "github.com/edulend/loan-management/internal/core/datamodel/document"
	userDatamodel "github.com/edulend/loan-management/internal/core/datamodel/user"
	"github.com/edulend/loan-management/internal/eligibility"
)

// EligibilityRepository implements eligibility.Repository over the document
// and financial-profile tables using GORM.
type EligibilityRepository struct {
	db *gorm.DB
}

func NewEligibilityRepository(db *gorm.DB) eligibility.Repository {
	return &EligibilityRepository{db: db}
}

func (r *EligibilityRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (r *EligibilityRepository) HasIdentityDocuments(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&documentDatamodel.UserDocument{}).
		Where("user_id = ? AND category = ?", userID, documentDatamodel.CategoryIdentity).
		Count(&count).Error
	return count > 0, err
}

// CountFinancialDocuments counts financial evidence across both collections
// it can live in, de-duplicated by storage path.
func (r *EligibilityRepository) CountFinancialDocuments(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("(? UNION ?) AS financial_docs",
			r.db.Model(&documentDatamodel.UserDocument{}).
				Select("storage_path").
				Where("user_id = ? AND category = ?", userID, documentDatamodel.CategoryFinancial),
			r.db.Model(&documentDatamodel.FinancialProfileDocument{}).
				Select("storage_path").
				Where("user_id = ?", userID),
		).
		Count(&count).Error
	return count, err
}

func (r *EligibilityRepository) HasFinancialProfile(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&documentDatamodel.FinancialProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}
