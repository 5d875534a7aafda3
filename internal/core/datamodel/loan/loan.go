package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanApplication is the persistence model for a loan application and its
// financial lifecycle. Monetary columns are numeric(14,2).
type LoanApplication struct {
	ID            string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID        string `json:"user_id" gorm:"column:user_id;type:uuid;not null;index"`
	Organization  string `json:"organization" gorm:"not null"`
	Course        string `json:"course" gorm:"not null"`
	Purpose       string `json:"purpose"`
	StudyDuration int    `json:"study_duration" gorm:"column:study_duration"`

	Amount                  decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	InterestRate            decimal.Decimal `json:"interest_rate" gorm:"column:interest_rate;type:numeric(5,2);default:0"`
	TotalAmountWithInterest decimal.Decimal `json:"total_amount_with_interest" gorm:"column:total_amount_with_interest;type:numeric(14,2)"`
	RemainingBalance        decimal.Decimal `json:"remaining_balance" gorm:"column:remaining_balance;type:numeric(14,2);not null"`

	Status     string  `json:"status" gorm:"default:Pending;index"`
	AdminNotes *string `json:"admin_notes,omitempty" gorm:"column:admin_notes"`

	VerificationStatus *string    `json:"verification_status,omitempty" gorm:"column:verification_status"`
	VerifiedBy         *string    `json:"verified_by,omitempty" gorm:"column:verified_by;type:uuid"`
	VerificationDate   *time.Time `json:"verification_date,omitempty" gorm:"column:verification_date"`
	VerificationNotes  *string    `json:"verification_notes,omitempty" gorm:"column:verification_notes"`

	Repayments []Repayment `json:"repayments,omitempty" gorm:"foreignKey:LoanID"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
	UpdatedBy *string   `json:"updated_by,omitempty" gorm:"column:updated_by;type:uuid"`
}

func (LoanApplication) TableName() string {
	return "loan_applications"
}

// Repayment rows are append-only; the sequence id preserves insertion order.
type Repayment struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	LoanID        string          `json:"loan_id" gorm:"column:loan_id;type:uuid;not null;index"`
	AmountPaid    decimal.Decimal `json:"amount_paid" gorm:"column:amount_paid;type:numeric(14,2);not null"`
	PaymentMethod string          `json:"payment_method" gorm:"column:payment_method"`
	ReceiptNumber string          `json:"receipt_number" gorm:"column:receipt_number;not null;uniqueIndex"`
	PaidAt        time.Time       `json:"paid_at" gorm:"column:paid_at;default:now()"`
}

func (Repayment) TableName() string {
	return "repayments"
}
