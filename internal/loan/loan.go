package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	loanDatamodel "github.com/edulend/loan-management/internal/core/datamodel/loan"
)

// Status values of a loan application. Pending Review sits between document
// verification and the final admin decision.
type Status string

const (
	StatusPending       Status = "Pending"
	StatusPendingReview Status = "Pending Review"
	StatusApproved      Status = "Approved"
	StatusRejected      Status = "Rejected"
	StatusRepaid        Status = "Repaid"
)

// validTransitions enumerates the lifecycle state machine. Rejected and
// Repaid are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:       {StatusPendingReview, StatusApproved, StatusRejected},
	StatusPendingReview: {StatusApproved, StatusRejected},
	StatusApproved:      {StatusRepaid},
	StatusRejected:      {},
	StatusRepaid:        {},
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPendingReview, StatusApproved, StatusRejected, StatusRepaid:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

func CanTransition(from, to Status) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// VerificationStatus is the independent document-verification sub-state.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
	VerificationMoreInfo VerificationStatus = "moreInfo"
)

func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch VerificationStatus(s) {
	case VerificationPending, VerificationVerified, VerificationRejected, VerificationMoreInfo:
		return VerificationStatus(s), nil
	}
	return "", ErrInvalidVerificationStatus
}

type DocumentVerification struct {
	Status           VerificationStatus `json:"status"`
	VerifiedBy       string             `json:"verifiedBy,omitempty"`
	VerificationDate time.Time          `json:"verificationDate"`
	Notes            string             `json:"notes,omitempty"`
}

// Repayment is one payment event against a loan. Entries are append-only.
type Repayment struct {
	ID            int64           `json:"-"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	PaymentMethod string          `json:"paymentMethod"`
	ReceiptNumber string          `json:"receiptNumber"`
	PaidAt        time.Time       `json:"date"`
}

type LoanApplication struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Organization  string `json:"organization"`
	Course        string `json:"course"`
	Purpose       string `json:"purpose,omitempty"`
	StudyDuration int    `json:"studyDuration,omitempty"`

	Amount                  decimal.Decimal `json:"amount"`
	InterestRate            decimal.Decimal `json:"interestRate"`
	TotalAmountWithInterest decimal.Decimal `json:"totalAmountWithInterest"`
	RemainingBalance        decimal.Decimal `json:"remainingBalance"`

	Status     Status `json:"status"`
	AdminNotes string `json:"adminNotes,omitempty"`

	DocumentVerification *DocumentVerification `json:"documentVerification,omitempty"`
	RepaymentHistory     []Repayment           `json:"repaymentHistory"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// Domain errors
var (
	ErrLoanNotFound              = errors.New("loan not found")
	ErrInvalidStatus             = errors.New("invalid loan status")
	ErrInvalidVerificationStatus = errors.New("invalid document verification status")
	ErrNotPayable                = errors.New("can only make payments on approved loans")
	ErrUnauthorizedAccess        = errors.New("unauthorized access to loan")
)

// NewLoanApplication builds a Pending loan. Loans are interest-free by
// policy: the interest rate is fixed at zero and the repayable total equals
// the principal, as does the opening balance.
func NewLoanApplication(id, userID string, dto CreateLoanDTO) *LoanApplication {
	now := time.Now().UTC()
	amount := dto.Amount.Round(2)

	return &LoanApplication{
		ID:                      id,
		UserID:                  userID,
		Organization:            dto.Organization,
		Course:                  dto.Course,
		Purpose:                 dto.Purpose,
		StudyDuration:           dto.StudyDuration,
		Amount:                  amount,
		InterestRate:            decimal.Zero,
		TotalAmountWithInterest: amount,
		RemainingBalance:        amount,
		Status:                  StatusPending,
		RepaymentHistory:        []Repayment{},
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

func (l *LoanApplication) IsTerminal() bool {
	return l.Status == StatusRejected || l.Status == StatusRepaid
}

// CanAcceptPayment reports whether the ledger may take a payment. Repaid is
// included only to tolerate a final balancing payment attempt; the balance
// check still rejects anything above zero remaining.
func (l *LoanApplication) CanAcceptPayment() bool {
	return l.Status == StatusApproved || l.Status == StatusRepaid
}

// SetStatus applies an admin-driven transition. When the loan is (re-)
// approved the interest-free terms are re-forced; resetBalance additionally
// re-derives the remaining balance from the principal.
func (l *LoanApplication) SetStatus(status Status, adminNotes, adminID string, resetBalance bool) {
	l.Status = status

	if adminNotes != "" {
		l.AdminNotes = adminNotes
	}

	if status == StatusApproved {
		l.InterestRate = decimal.Zero
		l.TotalAmountWithInterest = l.Amount
		if resetBalance {
			l.RemainingBalance = l.Amount
		}
	}

	l.touch(adminID)
}

// SetPrincipal edits the requested amount. The repayable total always tracks
// the principal; the remaining balance follows only while no payments have
// been made, so an edit never erases repayment progress.
func (l *LoanApplication) SetPrincipal(amount decimal.Decimal, adminID string) {
	amount = amount.Round(2)

	untouched := l.RemainingBalance.Equal(l.Amount) && len(l.RepaymentHistory) == 0
	l.Amount = amount
	l.TotalAmountWithInterest = amount
	if untouched {
		l.RemainingBalance = amount
	}

	l.touch(adminID)
}

// ApplyVerification records the document-verification sub-record and runs the
// coupled lifecycle transitions: verified promotes a Pending loan to Pending
// Review, rejected forces Rejected regardless of current status.
func (l *LoanApplication) ApplyVerification(status VerificationStatus, notes, adminID string) {
	l.DocumentVerification = &DocumentVerification{
		Status:           status,
		VerifiedBy:       adminID,
		VerificationDate: time.Now().UTC(),
		Notes:            notes,
	}

	switch {
	case status == VerificationVerified && l.Status == StatusPending:
		l.Status = StatusPendingReview
	case status == VerificationRejected:
		l.Status = StatusRejected
	}

	l.touch(adminID)
}

// ApplyPayment appends a repayment and recomputes the balance, rounded to
// currency precision and clamped at zero. Reaching zero flips the loan to
// Repaid in the same mutation, so the two are never observable apart.
func (l *LoanApplication) ApplyPayment(r Repayment) {
	l.RepaymentHistory = append(l.RepaymentHistory, r)

	l.RemainingBalance = l.RemainingBalance.Sub(r.AmountPaid).Round(2)
	if l.RemainingBalance.Sign() <= 0 {
		l.RemainingBalance = decimal.Zero
		l.Status = StatusRepaid
	}

	l.UpdatedAt = time.Now().UTC()
}

func (l *LoanApplication) touch(actorID string) {
	l.UpdatedAt = time.Now().UTC()
	if actorID != "" {
		l.UpdatedBy = actorID
	}
}

func ToDataModel(l *LoanApplication) *loanDatamodel.LoanApplication {
	dm := &loanDatamodel.LoanApplication{
		ID:                      l.ID,
		UserID:                  l.UserID,
		Organization:            l.Organization,
		Course:                  l.Course,
		Purpose:                 l.Purpose,
		StudyDuration:           l.StudyDuration,
		Amount:                  l.Amount,
		InterestRate:            l.InterestRate,
		TotalAmountWithInterest: l.TotalAmountWithInterest,
		RemainingBalance:        l.RemainingBalance,
		Status:                  string(l.Status),
		CreatedAt:               l.CreatedAt,
		UpdatedAt:               l.UpdatedAt,
	}

	if l.AdminNotes != "" {
		dm.AdminNotes = &l.AdminNotes
	}
	if l.UpdatedBy != "" {
		dm.UpdatedBy = &l.UpdatedBy
	}
	if v := l.DocumentVerification; v != nil {
		status := string(v.Status)
		date := v.VerificationDate
		dm.VerificationStatus = &status
		dm.VerificationDate = &date
		if v.VerifiedBy != "" {
			dm.VerifiedBy = &v.VerifiedBy
		}
		if v.Notes != "" {
			dm.VerificationNotes = &v.Notes
		}
	}

	dm.Repayments = make([]loanDatamodel.Repayment, len(l.RepaymentHistory))
	for i, r := range l.RepaymentHistory {
		dm.Repayments[i] = loanDatamodel.Repayment{
			ID:            r.ID,
			LoanID:        l.ID,
			AmountPaid:    r.AmountPaid,
			PaymentMethod: r.PaymentMethod,
			ReceiptNumber: r.ReceiptNumber,
			PaidAt:        r.PaidAt,
		}
	}

	return dm
}

func FromDataModel(dm *loanDatamodel.LoanApplication) *LoanApplication {
	l := &LoanApplication{
		ID:                      dm.ID,
		UserID:                  dm.UserID,
		Organization:            dm.Organization,
		Course:                  dm.Course,
		Purpose:                 dm.Purpose,
		StudyDuration:           dm.StudyDuration,
		Amount:                  dm.Amount,
		InterestRate:            dm.InterestRate,
		TotalAmountWithInterest: dm.TotalAmountWithInterest,
		RemainingBalance:        dm.RemainingBalance,
		Status:                  Status(dm.Status),
		RepaymentHistory:        []Repayment{},
		CreatedAt:               dm.CreatedAt,
		UpdatedAt:               dm.UpdatedAt,
	}

	if dm.AdminNotes != nil {
		l.AdminNotes = *dm.AdminNotes
	}
	if dm.UpdatedBy != nil {
		l.UpdatedBy = *dm.UpdatedBy
	}
	if dm.VerificationStatus != nil {
		v := &DocumentVerification{Status: VerificationStatus(*dm.VerificationStatus)}
		if dm.VerifiedBy != nil {
			v.VerifiedBy = *dm.VerifiedBy
		}
		if dm.VerificationDate != nil {
			v.VerificationDate = *dm.VerificationDate
		}
		if dm.VerificationNotes != nil {
			v.Notes = *dm.VerificationNotes
		}
		l.DocumentVerification = v
	}

	for _, r := range dm.Repayments {
		l.RepaymentHistory = append(l.RepaymentHistory, Repayment{
			ID:            r.ID,
			AmountPaid:    r.AmountPaid,
			PaymentMethod: r.PaymentMethod,
			ReceiptNumber: r.ReceiptNumber,
			PaidAt:        r.PaidAt,
		})
	}

	return l
}

func FromDataModelSlice(dms []*loanDatamodel.LoanApplication) []*LoanApplication {
	result := make([]*LoanApplication, len(dms))
	for i, dm := range dms {
		result[i] = FromDataModel(dm)
	}
	return result
}
