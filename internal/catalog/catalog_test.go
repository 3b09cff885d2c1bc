package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/store"
	"github.com/folioapp/folio-server/internal/store/sqlite"
)

func setupCatalogTest(t *testing.T) (*Service, store.Store) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	return NewService(st, logger), st
}

func createTestAuthor(t *testing.T, st store.Store, id string) string {
	t.Helper()
	now := time.Now()
	require.NoError(t, st.CreateUser(context.Background(), &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  "Test Author",
		PasswordHash: "$argon2id$fakehashfortest",
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
	return id
}

func TestPublish(t *testing.T) {
	svc, st := setupCatalogTest(t)
	ctx := context.Background()

	author := createTestAuthor(t, st, "author-1")

	book, err := svc.Publish(ctx, author, PublishRequest{
		Title:       "The Go Ledger",
		Description: "A book about money",
		Price:       decimal.RequireFromString("9.99"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(book.ID, "book-"), "id %s", book.ID)
	assert.Equal(t, author, book.AuthorID)
	assert.True(t, book.Monetized())
	assert.False(t, book.CreatedAt.IsZero())

	got, err := svc.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Go Ledger", got.Title)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))
}

func TestPublish_FreeBook(t *testing.T) {
	svc, st := setupCatalogTest(t)

	author := createTestAuthor(t, st, "author-1")

	book, err := svc.Publish(context.Background(), author, PublishRequest{
		Title: "Free Sampler",
		Price: decimal.Zero,
	})
	require.NoError(t, err)
	assert.False(t, book.Monetized())
}

func TestPublish_Validation(t *testing.T) {
	svc, st := setupCatalogTest(t)
	ctx := context.Background()

	author := createTestAuthor(t, st, "author-1")

	cases := []struct {
		name string
		req  PublishRequest
	}{
		{"missing title", PublishRequest{Price: decimal.RequireFromString("1.00")}},
		{"title too long", PublishRequest{Title: strings.Repeat("x", 201)}},
		{"negative price", PublishRequest{Title: "Book", Price: decimal.RequireFromString("-1.00")}},
		{"sub-cent price", PublishRequest{Title: "Book", Price: decimal.RequireFromString("1.005")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Publish(ctx, author, tc.req)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
		})
	}
}

func TestUpdate(t *testing.T) {
	svc, st := setupCatalogTest(t)
	ctx := context.Background()

	author := createTestAuthor(t, st, "author-1")

	book, err := svc.Publish(ctx, author, PublishRequest{
		Title: "First Edition",
		Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	title := "Second Edition"
	price := decimal.RequireFromString("12.00")
	updated, err := svc.Update(ctx, author, book.ID, UpdateRequest{Title: &title, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Second Edition", updated.Title)
	assert.True(t, updated.Price.Equal(price))
	// Untouched fields survive.
	assert.Equal(t, book.Description, updated.Description)
}

func TestUpdate_OnlyAuthor(t *testing.T) {
	svc, st := setupCatalogTest(t)
	ctx := context.Background()

	author := createTestAuthor(t, st, "author-1")
	other := createTestAuthor(t, st, "author-2")

	book, err := svc.Publish(ctx, author, PublishRequest{
		Title: "Mine",
		Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.Update(ctx, other, book.ID, UpdateRequest{Title: &title})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrForbidden), "got %v", err)
}

func TestUpdate_PriceValidation(t *testing.T) {
	svc, st := setupCatalogTest(t)
	ctx := context.Background()

	author := createTestAuthor(t, st, "author-1")
	book, err := svc.Publish(ctx, author, PublishRequest{
		Title: "Book",
		Price: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	negative := decimal.RequireFromString("-2.00")
	_, err = svc.Update(ctx, author, book.ID, UpdateRequest{Price: &negative})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
}

func TestListByAuthor(t *testing.T) {
	svc, st := setupCatalogTest(t)
	ctx := context.Background()

	author := createTestAuthor(t, st, "author-1")
	other := createTestAuthor(t, st, "author-2")

	for _, title := range []string{"One", "Two"} {
		_, err := svc.Publish(ctx, author, PublishRequest{Title: title, Price: decimal.RequireFromString("5.00")})
		require.NoError(t, err)
	}
	_, err := svc.Publish(ctx, other, PublishRequest{Title: "Theirs", Price: decimal.Zero})
	require.NoError(t, err)

	mine, err := svc.ListByAuthor(ctx, author)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
