package repayment

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/edulend/loan-management/internal/loan"
)

var (
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
)

// ExceedsBalanceError reports a rejected over-payment together with the
// balance observed at the time of the attempt, so the caller can retry with
// the exact payoff amount.
type ExceedsBalanceError struct {
	RemainingBalance decimal.Decimal
}

func (e *ExceedsBalanceError) Error() string {
	return "repayment amount exceeds the remaining balance"
}

// Receipt is what a successful payment hands back to the payer.
type Receipt struct {
	ReceiptNumber    string          `json:"receiptNumber"`
	LoanID           string          `json:"loanId"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	PaymentMethod    string          `json:"paymentMethod"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	Status           string          `json:"status"`
	PaidAt           time.Time       `json:"paidAt"`
}

// NewReceiptNumber builds a unique receipt reference from the millisecond
// timestamp and a random suffix.
func NewReceiptNumber() string {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("RCPT-%d-%06d", time.Now().UnixMilli(), time.Now().Nanosecond()%1000000)
	}
	return fmt.Sprintf("RCPT-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}

// UpcomingPayment summarizes one active loan for the payer dashboard. Loans
// are interest-free, so the interest figures are always zero and the total
// equals the principal; they are still reported so the payer sees the full
// cost breakdown.
type UpcomingPayment struct {
	LoanID           string           `json:"loanId"`
	Organization     string           `json:"organization"`
	Course           string           `json:"course"`
	Status           string           `json:"status"`
	Amount           decimal.Decimal  `json:"amount"`
	InterestRate     decimal.Decimal  `json:"interestRate"`
	InterestAmount   decimal.Decimal  `json:"interestAmount"`
	TotalAmount      decimal.Decimal  `json:"totalAmount"`
	RemainingBalance decimal.Decimal  `json:"remainingBalance"`
	RepaymentHistory []loan.Repayment `json:"repaymentHistory"`
	NextPaymentDue   *time.Time       `json:"nextPaymentDue"`
	LastPaymentAt    *time.Time       `json:"lastPaymentAt,omitempty"`
}
