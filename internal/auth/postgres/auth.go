package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/edulend/loan-management/internal/auth"
	userDatamodel "github.com/edulend/loan-management/internal/core/datamodel/user"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.RepositoryAPI {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) GetUserByID(ctx context.Context, userID string) (*auth.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}

	return &auth.User{
		ID:         u.ID,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}, nil
}
