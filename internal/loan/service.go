package loan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errors "github.com/edulend/loan-management/internal"
	"github.com/edulend/loan-management/internal/core/events"
	"github.com/edulend/loan-management/internal/eligibility"
)

// Repository defines the data access methods for loan applications.
type Repository interface {
	Create(ctx context.Context, l *LoanApplication) error
	GetByID(ctx context.Context, id string) (*LoanApplication, error)
	GetByUserID(ctx context.Context, userID string) ([]*LoanApplication, error)
	Save(ctx context.Context, l *LoanApplication) error
	ListByStatus(ctx context.Context, status *Status, limit, offset int) ([]*LoanApplication, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	SumOutstandingBalance(ctx context.Context) (decimal.Decimal, error)
}

// EligibilityGate is the submission precondition check.
type EligibilityGate interface {
	Check(ctx context.Context, userID string) (eligibility.Result, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

// NotEligibleError carries the missing requirements back to the caller so
// the UI can route the student to the right remediation step.
type NotEligibleError struct {
	Result eligibility.Result
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("not eligible to apply for a loan, missing: %v", e.Result.Missing)
}

// Service handles loan application business logic.
type Service struct {
	repo   Repository
	gate   EligibilityGate
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, gate EligibilityGate, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		gate:   gate,
		bus:    bus,
		logger: logger,
	}
}

// Submit runs the eligibility gate and creates a Pending application. The
// gate is re-evaluated on every attempt; nothing is cached on the user.
func (s *Service) Submit(ctx context.Context, userID string, dto CreateLoanDTO) (*LoanApplication, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("loan application validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	exists, err := s.gate.UserExists(ctx, userID)
	if err != nil {
		s.logger.Error("failed to look up user", "error", err, "user_id", userID)
		return nil, errors.NewInternalError("failed to verify user", err)
	}
	if !exists {
		return nil, errors.NewNotFoundError("User not found", errors.ErrCodeUserNotFound)
	}

	result, err := s.gate.Check(ctx, userID)
	if err != nil {
		s.logger.Error("eligibility check failed", "error", err, "user_id", userID)
		return nil, errors.NewInternalError("failed to run eligibility check", err)
	}
	if !result.Eligible {
		s.logger.Info("loan application blocked by eligibility gate",
			"user_id", userID,
			"missing", result.Missing)
		return nil, &NotEligibleError{Result: result}
	}

	application := NewLoanApplication(uuid.NewString(), userID, dto)

	if err := s.repo.Create(ctx, application); err != nil {
		s.logger.Error("failed to create loan application", "error", err, "user_id", userID)
		return nil, err
	}

	s.bus.Publish(ctx, events.NewLoanSubmitted(application.ID, userID, application.Amount.StringFixed(2)))

	s.logger.Info("loan application submitted",
		"loan_id", application.ID,
		"user_id", userID,
		"amount", application.Amount,
		"organization", application.Organization)

	return application, nil
}

// Get returns a single application with ownership enforcement.
func (s *Service) Get(ctx context.Context, loanID, actorID string, actorIsAdmin bool) (*LoanApplication, error) {
	application, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !actorIsAdmin && application.UserID != actorID {
		s.logger.Warn("unauthorized access to loan", "loan_id", loanID, "actor_id", actorID)
		return nil, ErrUnauthorizedAccess
	}

	return application, nil
}

// ListForUser returns all applications belonging to a user.
func (s *Service) ListForUser(ctx context.Context, userID, actorID string, actorIsAdmin bool) ([]*LoanApplication, error) {
	if !actorIsAdmin && userID != actorID {
		return nil, ErrUnauthorizedAccess
	}

	applications, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list user loans", "error", err, "user_id", userID)
		return nil, err
	}

	return applications, nil
}
