package user

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is the collaborator-owned account record. Registration, OTP and
// profile management live elsewhere; the loan core only reads id, role and
// verification state.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	FirstName    string    `json:"first_name" gorm:"column:first_name"`
	LastName     string    `json:"last_name" gorm:"column:last_name"`
	Role         string    `json:"role" gorm:"default:student"`
	IsVerified   bool      `json:"is_verified" gorm:"column:is_verified;default:false"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}
