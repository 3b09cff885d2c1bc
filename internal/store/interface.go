// Package store defines the persistence interface for the Folio server.
package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/folioapp/folio-server/internal/domain"
)

// Store defines the interface for all persistence operations.
//
// The ledger methods carry the core correctness guarantees: AppendSale is
// backed by a storage-level uniqueness constraint on (buyer_id, book_id) so
// that at most one SALE exists per pair, and AppendPayout re-derives the
// author balance inside the same storage transaction as the insert so two
// concurrent withdrawals cannot jointly overdraw an account.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)

	// Books
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	ListBooks(ctx context.Context) ([]*domain.Book, error)
	ListBooksByAuthor(ctx context.Context, authorID string) ([]*domain.Book, error)

	// Transaction ledger (append-only)
	AppendSale(ctx context.Context, txn *domain.Transaction) error
	AppendPayout(ctx context.Context, txn *domain.Transaction) (available decimal.Decimal, err error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	GetSaleByBuyerAndBook(ctx context.Context, buyerID, bookID string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
	AuthorBalance(ctx context.Context, authorID string) (decimal.Decimal, error)
	MarkPayoutPaid(ctx context.Context, id string) error
	ListSalesMissingGrants(ctx context.Context) ([]*domain.Transaction, error)

	// Ownership grants
	CreateGrant(ctx context.Context, grant *domain.Grant) error
	LinkGrantTransaction(ctx context.Context, userID, bookID, transactionID string) error
	GetGrant(ctx context.Context, userID, bookID string) (*domain.Grant, error)
	ListGrantsForUser(ctx context.Context, userID string) ([]*domain.Grant, error)
	DeleteGrant(ctx context.Context, userID, bookID string) error

	// Platform settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Notifications
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotificationsForUser(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}
