package loan

import (
	"github.com/shopspring/decimal"

	errors "github.com/edulend/loan-management/internal"
	"github.com/edulend/loan-management/internal/core/common/validation"
)

// CreateLoanDTO is the submit-application payload.
type CreateLoanDTO struct {
	Organization  string          `json:"organization"`
	Course        string          `json:"course"`
	Amount        decimal.Decimal `json:"amount"`
	Purpose       string          `json:"purpose,omitempty"`
	StudyDuration int             `json:"studyDuration,omitempty"`
}

func (dto CreateLoanDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("organization", dto.Organization).Required().MaxLength(200)
	validator.Field("course", dto.Course).Required().MaxLength(200)
	validator.Field("amount", dto.Amount).Required().Positive(errors.ErrCodeInvalidAmount)
	if dto.StudyDuration != 0 {
		validator.Field("studyDuration", dto.StudyDuration).MinInt(1, errors.ErrCodeValidationFailed)
	}
	return validator.Validate()
}

// UpdateStatusDTO is the allow-listed admin status update. Only status and
// adminNotes can be set this way; everything else on the record is owned by
// other operations.
type UpdateStatusDTO struct {
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes,omitempty"`
}

func (dto UpdateStatusDTO) Validate() *errors.AppError {
	if dto.Status == "" {
		return errors.NewValidationFieldError("status", "status is required", errors.ErrCodeMissingField)
	}
	if _, err := ParseStatus(dto.Status); err != nil {
		return errors.NewValidationError("status must be one of: Pending, Pending Review, Approved, Rejected, Repaid", errors.ErrCodeInvalidStatus)
	}
	return nil
}

// VerifyDocumentsDTO sets the document-verification sub-record.
type VerifyDocumentsDTO struct {
	VerificationStatus string `json:"verificationStatus"`
	VerificationNotes  string `json:"verificationNotes,omitempty"`
}

func (dto VerifyDocumentsDTO) Validate() *errors.AppError {
	if dto.VerificationStatus == "" {
		return errors.NewValidationFieldError("verificationStatus", "verificationStatus is required", errors.ErrCodeMissingField)
	}
	if _, err := ParseVerificationStatus(dto.VerificationStatus); err != nil {
		return errors.NewValidationError("verificationStatus must be one of: pending, verified, rejected, moreInfo", errors.ErrCodeInvalidStatus)
	}
	return nil
}

// UpdatePrincipalDTO edits the requested amount on an application.
type UpdatePrincipalDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

func (dto UpdatePrincipalDTO) Validate() *errors.AppError {
	return validation.ValidateLoanAmount(dto.Amount)
}
