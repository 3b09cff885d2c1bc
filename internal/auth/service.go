package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/id"
	"github.com/folioapp/folio-server/internal/store"
)

// Service is the user directory: account creation, login, and bearer
// credential verification.
type Service struct {
	store  store.Store
	tokens *TokenService
	logger *slog.Logger
}

// NewService creates a new auth service.
func NewService(st store.Store, tokens *TokenService, logger *slog.Logger) *Service {
	return &Service{store: st, tokens: tokens, logger: logger}
}

// Register creates a new account and returns the user.
func (s *Service) Register(ctx context.Context, email, displayName, password string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || displayName == "" {
		return nil, domainerrors.Validation("email and display name are required")
	}
	if len(password) < 8 {
		return nil, domainerrors.Validation("password must be at least 8 characters")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", userID, "email", email)
	return user, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if domainerrors.Is(err, store.ErrNotFound) {
		return nil, "", domainerrors.InvalidCredentials("invalid email or password")
	}
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, "", fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, "", domainerrors.InvalidCredentials("invalid email or password")
	}

	token, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// VerifyBearer validates an access token and loads the account it names.
func (s *Service) VerifyBearer(ctx context.Context, tokenString string) (*domain.User, *AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("token references unknown user")
	}

	return user, claims, nil
}
