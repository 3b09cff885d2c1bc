package auth

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/store/sqlite"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func setupAuthTest(t *testing.T) *Service {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tokens, err := NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	return NewService(st, tokens, logger)
}

// === Password Hashing Tests ===

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "hash %s", hash)

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("password123")
	require.NoError(t, err)
	second, err := HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	// A malformed stored hash verifies false instead of erroring.
	ok, err := VerifyPassword("not-a-hash", "password123")
	require.NoError(t, err)
	assert.False(t, ok)
}

// === Token Tests ===

func TestTokenRoundTrip(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "reader@example.com", "Reader", "password123")
	require.NoError(t, err)

	_, token, err := svc.Login(ctx, "reader@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, strings.HasPrefix(token, "v4.local."), "token %s", token)

	verified, claims, err := svc.VerifyBearer(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.False(t, claims.IsAdmin)
}

func TestVerifyBearer_Garbage(t *testing.T) {
	svc := setupAuthTest(t)

	_, _, err := svc.VerifyBearer(context.Background(), "v4.local.garbage")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized), "got %v", err)
}

func TestVerifyBearer_WrongKey(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "reader@example.com", "Reader", "password123")
	require.NoError(t, err)
	_, token, err := svc.Login(ctx, "reader@example.com", "password123")
	require.NoError(t, err)

	otherKey := strings.Repeat("ff", 32)
	otherTokens, err := NewTokenService(otherKey, time.Hour)
	require.NoError(t, err)
	other := NewService(nil, otherTokens, slog.New(slog.DiscardHandler))

	_, _, err = other.VerifyBearer(ctx, token)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized), "got %v", err)
}

func TestNewTokenService_KeyValidation(t *testing.T) {
	_, err := NewTokenService("too-short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("zz", 32), time.Hour)
	assert.Error(t, err)
}

// === Registration and Login Tests ===

func TestRegister(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Reader@Example.COM ", "Reader", "password123")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "password123", user.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "reader@example.com", "Reader", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "reader@example.com", "Other Reader", "password456")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists), "got %v", err)
}

func TestRegister_Validation(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "Reader", "password123")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)

	_, err = svc.Register(ctx, "reader@example.com", "", "password123")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)

	_, err = svc.Register(ctx, "reader@example.com", "Reader", "short")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc := setupAuthTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "reader@example.com", "Reader", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "reader@example.com", "wrong")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials), "got %v", err)

	// Unknown account yields the same error as a wrong password.
	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidCredentials), "got %v", err)
}
