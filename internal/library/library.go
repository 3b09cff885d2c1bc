// Package library materializes book access from ownership grants.
//
// A user's library holds two kinds of entries: purchase-backed grants created
// by the purchase flow, and "soft" entries added manually without payment.
// Both count for library membership; only a purchase-backed grant (or a free
// book) unlocks full content.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/id"
	"github.com/folioapp/folio-server/internal/store"
)

// Service provides library and ownership operations.
type Service struct {
	store  store.Store
	logger *slog.Logger
}

// NewService creates a new library service.
func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// GrantResult reports the outcome of a grant operation.
type GrantResult struct {
	Grant   *domain.Grant `json:"grant"`
	Already bool          `json:"already"`
}

// Grant records that a user may access a book. transactionID is empty for
// soft entries. Idempotent: if a grant already exists for the pair it is
// returned with Already=true and nothing is written, except that a soft
// entry is upgraded in place when a transaction arrives, so a purchase
// always ends in a purchase-backed grant.
func (s *Service) Grant(ctx context.Context, userID, bookID, transactionID string) (*GrantResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grantID, err := id.Generate("grant")
	if err != nil {
		return nil, fmt.Errorf("generate grant ID: %w", err)
	}

	grant := &domain.Grant{
		ID:            grantID,
		UserID:        userID,
		BookID:        bookID,
		TransactionID: transactionID,
		AcquiredAt:    time.Now(),
	}

	err = s.store.CreateGrant(ctx, grant)
	if domainerrors.Is(err, store.ErrAlreadyExists) {
		return s.upgradeExisting(ctx, userID, bookID, transactionID)
	}
	if err != nil {
		return nil, fmt.Errorf("create grant: %w", err)
	}

	s.logger.Info("grant created",
		"grant_id", grantID,
		"user_id", userID,
		"book_id", bookID,
		"transaction_id", transactionID,
	)

	return &GrantResult{Grant: grant}, nil
}

// upgradeExisting resolves a grant conflict. A soft entry blocks the insert
// of a purchase-backed grant for the same pair, so when a transaction is
// carried the soft entry is linked to it instead of being kept as-is.
func (s *Service) upgradeExisting(ctx context.Context, userID, bookID, transactionID string) (*GrantResult, error) {
	existing, err := s.store.GetGrant(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("load existing grant: %w", err)
	}
	if transactionID == "" || existing.Purchased() {
		return &GrantResult{Grant: existing, Already: true}, nil
	}

	err = s.store.LinkGrantTransaction(ctx, userID, bookID, transactionID)
	if domainerrors.Is(err, store.ErrNotFound) {
		// A concurrent caller linked it first.
		linked, getErr := s.store.GetGrant(ctx, userID, bookID)
		if getErr != nil {
			return nil, fmt.Errorf("load linked grant: %w", getErr)
		}
		return &GrantResult{Grant: linked, Already: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("link grant transaction: %w", err)
	}

	existing.TransactionID = transactionID
	s.logger.Info("soft grant upgraded to purchase",
		"grant_id", existing.ID,
		"user_id", userID,
		"book_id", bookID,
		"transaction_id", transactionID,
	)
	return &GrantResult{Grant: existing}, nil
}

// Has reports whether the user has any library entry for the book,
// purchase-backed or soft.
func (s *Service) Has(ctx context.Context, userID, bookID string) (bool, error) {
	_, err := s.store.GetGrant(ctx, userID, bookID)
	if domainerrors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Unlocked reports whether the user may read the book's full content.
// Monetized books require a purchase-backed grant; a soft library entry is
// not enough. Free books are unlocked by any grant.
func (s *Service) Unlocked(ctx context.Context, userID string, book *domain.Book) (bool, error) {
	grant, err := s.store.GetGrant(ctx, userID, book.ID)
	if domainerrors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if book.Monetized() {
		return grant.Purchased(), nil
	}
	return true, nil
}

// AddToLibrary creates a soft entry (no transaction) for the user.
func (s *Service) AddToLibrary(ctx context.Context, userID, bookID string) (*GrantResult, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.Grant(ctx, userID, bookID, "")
}

// RemoveFromLibrary revokes the user's grant for a book. The originating
// transaction, if any, stays in the ledger.
func (s *Service) RemoveFromLibrary(ctx context.Context, userID, bookID string) error {
	if err := s.store.DeleteGrant(ctx, userID, bookID); err != nil {
		return err
	}
	s.logger.Info("grant removed", "user_id", userID, "book_id", bookID)
	return nil
}

// Entry pairs a grant with its book for library listings.
type Entry struct {
	Grant    *domain.Grant `json:"grant"`
	Book     *domain.Book  `json:"book"`
	Unlocked bool          `json:"unlocked"`
}

// List returns the user's library entries, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Entry, error) {
	grants, err := s.store.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}

	entries := make([]*Entry, 0, len(grants))
	for _, g := range grants {
		book, err := s.store.GetBook(ctx, g.BookID)
		if err != nil {
			s.logger.Warn("library entry references missing book",
				"user_id", userID,
				"book_id", g.BookID,
				"error", err,
			)
			continue
		}
		unlocked := !book.Monetized() || g.Purchased()
		entries = append(entries, &Entry{Grant: g, Book: book, Unlocked: unlocked})
	}
	return entries, nil
}
