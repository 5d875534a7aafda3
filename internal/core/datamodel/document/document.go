package document

import "time"

// Document categories a student can upload evidence under.
const (
	CategoryIdentity  = "identity"
	CategoryFinancial = "financial"
)

// UserDocument is an uploaded evidence file. Upload and retrieval live in the
// document service; this model exists for the presence queries the
// eligibility gate runs.
type UserDocument struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"column:user_id;type:uuid;not null;index"`
	Category    string    `json:"category" gorm:"not null;index"`
	FileName    string    `json:"file_name" gorm:"column:file_name"`
	StoragePath string    `json:"storage_path" gorm:"column:storage_path;not null"`
	UploadedAt  time.Time `json:"uploaded_at" gorm:"column:uploaded_at;default:now()"`
}

func (UserDocument) TableName() string {
	return "user_documents"
}

// FinancialProfile is the submitted financial-information record. Its
// presence is the third eligibility signal.
type FinancialProfile struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	UserID          string    `json:"user_id" gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	AnnualIncome    string    `json:"annual_income" gorm:"column:annual_income"`
	EmploymentState string    `json:"employment_state" gorm:"column:employment_state"`
	SubmittedAt     time.Time `json:"submitted_at" gorm:"column:submitted_at;default:now()"`
}

func (FinancialProfile) TableName() string {
	return "financial_profiles"
}

// FinancialProfileDocument is the second collection financial documents can
// live in; the gate counts the union with user_documents, de-duplicated by
// storage path.
type FinancialProfileDocument struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"column:user_id;type:uuid;not null;index"`
	FileName    string    `json:"file_name" gorm:"column:file_name"`
	StoragePath string    `json:"storage_path" gorm:"column:storage_path;not null"`
	UploadedAt  time.Time `json:"uploaded_at" gorm:"column:uploaded_at;default:now()"`
}

func (FinancialProfileDocument) TableName() string {
	return "financial_profile_documents"
}
