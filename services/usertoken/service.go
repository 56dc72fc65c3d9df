package usertoken

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	usertokenRepo "deployhub/database/repository/usertoken"
	"deployhub/models"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("no tokens registered for user")

type UserTokenService interface {
	Register(ctx context.Context, userID string, req models.RegisterTokenRequest) (*models.UserToken, error)
	List(ctx context.Context, userID string) (*models.UserToken, error)
	// Tokens returns the registered push tokens of a user, or nil when there are none.
	Tokens(ctx context.Context, userID string) ([]string, error)
	Remove(ctx context.Context, userID string, tokens ...string) (int, error)
	RemoveAll(ctx context.Context, userID string) error
}

type DefaultUserTokenService struct {
	repo   usertokenRepo.UserTokenRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewDefaultUserTokenService(repo usertokenRepo.UserTokenRepository, logger *zap.Logger) (*DefaultUserTokenService, error) {
	if repo == nil {
		return nil, fmt.Errorf("user token service initialization error: repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultUserTokenService{repo: repo, logger: logger, now: time.Now}, nil
}

// Register adds a token to the user's set, creating the set on first use.
func (s *DefaultUserTokenService) Register(ctx context.Context, userID string, req models.RegisterTokenRequest) (*models.UserToken, error) {
	req.Token = strings.TrimSpace(req.Token)
	if userID == "" || req.Token == "" {
		return nil, fmt.Errorf("user id and token are required")
	}

	ut, err := s.repo.AddToken(ctx, userID, req, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to save tokens for user %s: %w", userID, err)
	}

	s.logger.Debug("Push token registered",
		zap.String("userId", userID),
		zap.String("platform", req.Platform),
		zap.Int("tokens", len(ut.Tokens)))
	return ut, nil
}

func (s *DefaultUserTokenService) List(ctx context.Context, userID string) (*models.UserToken, error) {
	ut, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, usertokenRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load tokens for user %s: %w", userID, err)
	}
	return ut, nil
}

func (s *DefaultUserTokenService) Tokens(ctx context.Context, userID string) ([]string, error) {
	ut, err := s.List(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ut.Tokens, nil
}

// Remove drops the given tokens and returns how many were registered.
func (s *DefaultUserTokenService) Remove(ctx context.Context, userID string, tokens ...string) (int, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	removed, err := s.repo.RemoveTokens(ctx, userID, tokens, s.now())
	if err != nil {
		if errors.Is(err, usertokenRepo.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to remove tokens for user %s: %w", userID, err)
	}
	return removed, nil
}

func (s *DefaultUserTokenService) RemoveAll(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, usertokenRepo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete tokens for user %s: %w", userID, err)
	}
	return nil
}
