package admin

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/edulend/loan-management/internal"
	"github.com/edulend/loan-management/internal/core/events"
	"github.com/edulend/loan-management/internal/loan"
)

// Stats is the portfolio snapshot served to the admin dashboard.
type Stats struct {
	TotalApplications  int64                 `json:"totalApplications"`
	ByStatus           map[loan.Status]int64 `json:"byStatus"`
	OutstandingBalance decimal.Decimal       `json:"outstandingBalance"`
}

type Service struct {
	repo   loan.Repository
	policy internal.LoanPolicyConfig
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo loan.Repository, policy internal.LoanPolicyConfig, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		bus:    bus,
		logger: logger,
	}
}

// SetStatus applies an admin status decision. Only status and adminNotes are
// writable through this path; approval re-forces the interest-free terms and,
// per policy, resets the remaining balance to the principal.
func (s *Service) SetStatus(ctx context.Context, loanID, adminID string, dto loan.UpdateStatusDTO) (*loan.LoanApplication, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	status, err := loan.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	l, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	from := l.Status
	l.SetStatus(status, dto.AdminNotes, adminID, s.policy.ResetBalanceOnApprove)

	if err := s.repo.Save(ctx, l); err != nil {
		s.logger.Error("failed to update loan status", "error", err, "loan_id", loanID)
		return nil, err
	}

	if from != l.Status {
		s.bus.Publish(ctx, events.NewLoanStatusChanged(loanID, string(from), string(l.Status), adminID))
	}

	s.logger.Info("loan status updated",
		"loan_id", loanID,
		"from_status", from,
		"to_status", l.Status,
		"admin_id", adminID)

	return l, nil
}

// VerifyDocuments records the document-verification decision and runs its
// coupled lifecycle transitions.
func (s *Service) VerifyDocuments(ctx context.Context, loanID, adminID string, dto loan.VerifyDocumentsDTO) (*loan.LoanApplication, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	verification, err := loan.ParseVerificationStatus(dto.VerificationStatus)
	if err != nil {
		return nil, err
	}

	l, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	from := l.Status
	l.ApplyVerification(verification, dto.VerificationNotes, adminID)

	if err := s.repo.Save(ctx, l); err != nil {
		s.logger.Error("failed to record document verification", "error", err, "loan_id", loanID)
		return nil, err
	}

	if from != l.Status {
		s.bus.Publish(ctx, events.NewLoanStatusChanged(loanID, string(from), string(l.Status), adminID))
	}

	s.logger.Info("loan documents verified",
		"loan_id", loanID,
		"verification_status", verification,
		"from_status", from,
		"to_status", l.Status,
		"admin_id", adminID)

	return l, nil
}

// UpdatePrincipal edits the requested amount on an application.
func (s *Service) UpdatePrincipal(ctx context.Context, loanID, adminID string, dto loan.UpdatePrincipalDTO) (*loan.LoanApplication, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	l, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	l.SetPrincipal(dto.Amount, adminID)

	if err := s.repo.Save(ctx, l); err != nil {
		s.logger.Error("failed to update loan principal", "error", err, "loan_id", loanID)
		return nil, err
	}

	s.logger.Info("loan principal updated",
		"loan_id", loanID,
		"amount", l.Amount,
		"admin_id", adminID)

	return l, nil
}

// ListLoans returns applications for review, optionally filtered by status.
func (s *Service) ListLoans(ctx context.Context, statusFilter string, limit, offset int) ([]*loan.LoanApplication, error) {
	var status *loan.Status
	if statusFilter != "" {
		parsed, err := loan.ParseStatus(statusFilter)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}

	return s.repo.ListByStatus(ctx, status, limit, offset)
}

// GetStats aggregates the application counts and the outstanding balance of
// approved loans.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count loans by status", "error", err)
		return nil, err
	}

	outstanding, err := s.repo.SumOutstandingBalance(ctx)
	if err != nil {
		s.logger.Error("failed to sum outstanding balances", "error", err)
		return nil, err
	}

	stats := &Stats{
		ByStatus:           make(map[loan.Status]int64, len(counts)),
		OutstandingBalance: outstanding,
	}
	for status, count := range counts {
		stats.ByStatus[status] = count
		stats.TotalApplications += count
	}

	for _, status := range []loan.Status{
		loan.StatusPending,
		loan.StatusPendingReview,
		loan.StatusApproved,
		loan.StatusRejected,
		loan.StatusRepaid,
	} {
		if _, ok := stats.ByStatus[status]; !ok {
			stats.ByStatus[status] = 0
		}
	}

	return stats, nil
}
