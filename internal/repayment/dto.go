package repayment

import (
	"github.com/shopspring/decimal"

	errors "github.com/edulend/loan-management/internal"
	"github.com/edulend/loan-management/internal/core/common/validation"
)

type MakePaymentDTO struct {
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	PaymentMethod string          `json:"paymentMethod"`
}

func (dto MakePaymentDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("amountPaid", dto.AmountPaid).Required().Positive(errors.ErrCodeInvalidAmount)
	validator.Field("paymentMethod", dto.PaymentMethod).MaxLength(50)
	return validator.Validate()
}
