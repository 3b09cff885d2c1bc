package api

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
)

// authenticateRequest validates the Authorization header and returns the user.
func (s *Server) authenticateRequest(ctx context.Context, authHeader string) (*domain.User, error) {
	if authHeader == "" {
		return nil, huma.Error401Unauthorized("Missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, huma.Error401Unauthorized("Invalid authorization header format")
	}

	user, _, err := s.services.Auth.VerifyBearer(ctx, parts[1])
	if err != nil {
		return nil, huma.Error401Unauthorized("Invalid or expired token")
	}

	return user, nil
}

// authenticateAndRequireAdmin validates the token and requires the admin role.
func (s *Server) authenticateAndRequireAdmin(ctx context.Context, authHeader string) (*domain.User, error) {
	user, err := s.authenticateRequest(ctx, authHeader)
	if err != nil {
		return nil, err
	}

	if !user.IsAdmin {
		return nil, domainerrors.Forbidden("Admin access required")
	}

	return user, nil
}

// allowLedgerWrite applies the per-user rate limit that guards the monetary
// endpoints (purchases and withdrawals).
func (s *Server) allowLedgerWrite(userID string) error {
	if !s.ledgerLimiter.Allow(userID) {
		s.logger.Warn("Rate limit exceeded on ledger write", "user_id", userID)
		return huma.Error429TooManyRequests("Too many requests. Please try again later.")
	}
	return nil
}
