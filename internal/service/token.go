package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/metrics"
	"github.com/sakif/otayori/internal/model"
	"github.com/sakif/otayori/internal/repository"
)

// TokenInfo is what the teacher page shows: the raw token and the staff
// link that embeds it.
type TokenInfo struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// TokenService manages the single shared staff access token.
//
// At most one token exists. Issuing a new one replaces the old one
// immediately, so a leaked staff link is revoked by issuing another.
type TokenService struct {
	repo     repository.TokenRepository
	logger   *slog.Logger
	newToken func() string
}

func NewTokenService(repo repository.TokenRepository, logger *slog.Logger) *TokenService {
	return &TokenService{
		repo:     repo,
		logger:   logger,
		newToken: uuid.NewString, // version 4: 122 random bits
	}
}

// StaffURL builds the staff page link for token under baseURL
// (scheme://host[:port], no trailing slash).
func StaffURL(baseURL, token string) string {
	return baseURL + "/staff?token=" + url.QueryEscape(token)
}

// Issue rotates the token. The previous token stops verifying as soon as this
// returns. A storage failure is returned as-is and not retried.
func (s *TokenService) Issue(ctx context.Context, baseURL string) (*TokenInfo, error) {
	tok := &model.AccessToken{Token: s.newToken()}

	if err := s.repo.ReplaceToken(ctx, tok); err != nil {
		s.logger.Error("failed to rotate access token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("rotating access token: %w", err)
	}

	metrics.TokenRotations.Inc()
	s.logger.Info("access token rotated", slog.String("id", tok.ID))

	return &TokenInfo{Token: tok.Token, URL: StaffURL(baseURL, tok.Token)}, nil
}

// Current returns the active token, or nil (and no error) when none has been
// issued yet.
func (s *TokenService) Current(ctx context.Context, baseURL string) (*TokenInfo, error) {
	tok, err := s.repo.CurrentToken(ctx)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to read access token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("reading access token: %w", err)
	}

	return &TokenInfo{Token: tok.Token, URL: StaffURL(baseURL, tok.Token)}, nil
}

// Verify reports whether candidate is the active token. "No such token" is a
// normal false; only storage failures return an error.
func (s *TokenService) Verify(ctx context.Context, candidate string) (bool, error) {
	if candidate == "" {
		metrics.ObserveVerification(false)
		return false, nil
	}

	_, err := s.repo.FindActiveToken(ctx, candidate)
	if errors.Is(err, apperror.ErrNotFound) {
		metrics.ObserveVerification(false)
		return false, nil
	}
	if err != nil {
		s.logger.Error("failed to verify access token", slog.String("error", err.Error()))
		return false, fmt.Errorf("verifying access token: %w", err)
	}

	metrics.ObserveVerification(true)
	return true, nil
}
