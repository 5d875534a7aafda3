package eligibility

import (
	"context"
	"log/slog"
)

// Repository exposes the read-side presence signals the gate needs. Document
// upload and financial-data submission are owned by collaborating services;
// the gate only asks whether the evidence exists right now.
type Repository interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	HasIdentityDocuments(ctx context.Context, userID string) (bool, error)
	CountFinancialDocuments(ctx context.Context, userID string) (int64, error)
	HasFinancialProfile(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Check evaluates the three independent eligibility signals for a user. It
// is a pure read: no mutation, no caching, re-run on every submission
// attempt.
func (s *Service) Check(ctx context.Context, userID string) (Result, error) {
	var missing []Requirement

	hasIdentity, err := s.repo.HasIdentityDocuments(ctx, userID)
	if err != nil {
		s.logger.Error("eligibility: identity document lookup failed", "error", err, "user_id", userID)
		return Result{}, err
	}
	if !hasIdentity {
		missing = append(missing, RequirementIdentification)
	}

	financialDocs, err := s.repo.CountFinancialDocuments(ctx, userID)
	if err != nil {
		s.logger.Error("eligibility: financial document lookup failed", "error", err, "user_id", userID)
		return Result{}, err
	}
	if financialDocs == 0 {
		missing = append(missing, RequirementFinancialDocuments)
	}

	hasProfile, err := s.repo.HasFinancialProfile(ctx, userID)
	if err != nil {
		s.logger.Error("eligibility: financial profile lookup failed", "error", err, "user_id", userID)
		return Result{}, err
	}
	if !hasProfile {
		missing = append(missing, RequirementFinancialData)
	}

	result := Result{Eligible: len(missing) == 0, Missing: missing}

	s.logger.Info("eligibility check evaluated",
		"user_id", userID,
		"eligible", result.Eligible,
		"has_identity_docs", hasIdentity,
		"financial_doc_count", financialDocs,
		"has_financial_profile", hasProfile)

	return result, nil
}

// UserExists is the collaborator lookup callers run before the gate itself.
func (s *Service) UserExists(ctx context.Context, userID string) (bool, error) {
	return s.repo.UserExists(ctx, userID)
}
