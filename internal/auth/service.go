package auth

import (
	"context"
	"log/slog"
)

type RepositoryAPI interface {
	GetUserByID(ctx context.Context, userID string) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID, email, role string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Service validates bearer tokens and resolves the principal behind them.
// Login/refresh flows live with the user collaborator, not here.
type Service struct {
	repo   RepositoryAPI
	tokens TokenGeneratorAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load user", "error", err, "user_id", userID)
		return nil, ErrUserNotFound
	}
	return user, nil
}
