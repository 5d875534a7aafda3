package repayment

import (
	"context"
	"log/slog"
	"time"

	"github.com/edulend/loan-management/internal/core/events"
	"github.com/edulend/loan-management/internal/loan"
)

// paymentDueInterval is how long after the last activity the next installment
// is expected.
const paymentDueInterval = 30 * 24 * time.Hour

// Repository is the slice of loan persistence the ledger needs. RecordPayment
// must run the apply callback under a per-loan write lock so concurrent
// payments against the same loan serialize.
type Repository interface {
	GetByID(ctx context.Context, id string) (*loan.LoanApplication, error)
	GetByUserID(ctx context.Context, userID string) ([]*loan.LoanApplication, error)
	RecordPayment(ctx context.Context, loanID string, apply func(l *loan.LoanApplication) (*loan.Repayment, error)) (*loan.LoanApplication, *loan.Repayment, error)
}

type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// MakePayment records one repayment against a loan. Checks run in a fixed
// order inside the locked transaction: existence, payability, amount sign,
// then the balance ceiling. A rejected payment leaves the ledger untouched.
func (s *Service) MakePayment(ctx context.Context, loanID, actorID string, actorIsAdmin bool, dto MakePaymentDTO) (*Receipt, error) {
	amount := dto.AmountPaid.Round(2)

	updated, recorded, err := s.repo.RecordPayment(ctx, loanID, func(l *loan.LoanApplication) (*loan.Repayment, error) {
		if !actorIsAdmin && l.UserID != actorID {
			return nil, loan.ErrUnauthorizedAccess
		}

		if !l.CanAcceptPayment() {
			return nil, loan.ErrNotPayable
		}

		if err := dto.Validate(); err != nil {
			return nil, err
		}
		if amount.Sign() <= 0 {
			return nil, ErrInvalidAmount
		}

		if amount.GreaterThan(l.RemainingBalance) {
			return nil, &ExceedsBalanceError{RemainingBalance: l.RemainingBalance}
		}

		r := loan.Repayment{
			AmountPaid:    amount,
			PaymentMethod: dto.PaymentMethod,
			ReceiptNumber: NewReceiptNumber(),
			PaidAt:        time.Now().UTC(),
		}
		l.ApplyPayment(r)

		return &r, nil
	})
	if err != nil {
		if _, ok := err.(*ExceedsBalanceError); !ok {
			s.logger.Error("payment rejected", "error", err, "loan_id", loanID, "actor_id", actorID)
		}
		return nil, err
	}

	s.bus.Publish(ctx, events.NewRepaymentRecorded(
		loanID,
		recorded.ReceiptNumber,
		recorded.AmountPaid.StringFixed(2),
		updated.RemainingBalance.StringFixed(2)))

	if updated.Status == loan.StatusRepaid {
		s.bus.Publish(ctx, events.NewLoanRepaid(loanID))
	}

	s.logger.Info("repayment recorded",
		"loan_id", loanID,
		"receipt_number", recorded.ReceiptNumber,
		"amount_paid", recorded.AmountPaid,
		"remaining_balance", updated.RemainingBalance,
		"status", updated.Status)

	return &Receipt{
		ReceiptNumber:    recorded.ReceiptNumber,
		LoanID:           loanID,
		AmountPaid:       recorded.AmountPaid,
		PaymentMethod:    recorded.PaymentMethod,
		RemainingBalance: updated.RemainingBalance,
		Status:           string(updated.Status),
		PaidAt:           recorded.PaidAt,
	}, nil
}

// History returns the ordered repayment ledger of a loan.
func (s *Service) History(ctx context.Context, loanID, actorID string, actorIsAdmin bool) ([]loan.Repayment, error) {
	l, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !actorIsAdmin && l.UserID != actorID {
		return nil, loan.ErrUnauthorizedAccess
	}

	return l.RepaymentHistory, nil
}

// ListUserRepayments summarizes a user's active and settled loans for the
// repayment dashboard. NextPaymentDue is 30 days after the last payment, or
// after the loan's last update when nothing has been paid yet; settled loans
// carry no due date.
func (s *Service) ListUserRepayments(ctx context.Context, userID, actorID string, actorIsAdmin bool) ([]UpcomingPayment, error) {
	if !actorIsAdmin && userID != actorID {
		return nil, loan.ErrUnauthorizedAccess
	}

	loans, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user repayments", "error", err, "user_id", userID)
		return nil, err
	}

	summaries := make([]UpcomingPayment, 0, len(loans))
	for _, l := range loans {
		if l.Status != loan.StatusApproved && l.Status != loan.StatusRepaid {
			continue
		}

		summary := UpcomingPayment{
			LoanID:           l.ID,
			Organization:     l.Organization,
			Course:           l.Course,
			Status:           string(l.Status),
			Amount:           l.Amount,
			InterestRate:     l.InterestRate,
			InterestAmount:   l.TotalAmountWithInterest.Sub(l.Amount),
			TotalAmount:      l.TotalAmountWithInterest,
			RemainingBalance: l.RemainingBalance,
			RepaymentHistory: l.RepaymentHistory,
		}

		if n := len(l.RepaymentHistory); n > 0 {
			last := l.RepaymentHistory[n-1].PaidAt
			summary.LastPaymentAt = &last
		}

		if l.Status == loan.StatusApproved && l.RemainingBalance.Sign() > 0 {
			anchor := l.UpdatedAt
			if anchor.IsZero() {
				anchor = l.CreatedAt
			}
			if summary.LastPaymentAt != nil {
				anchor = *summary.LastPaymentAt
			}
			due := anchor.Add(paymentDueInterval)
			summary.NextPaymentDue = &due
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}
