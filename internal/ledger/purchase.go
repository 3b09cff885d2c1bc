// Package ledger implements the monetary core: the append-only transaction
// ledger orchestration for purchases and withdrawals, fee resolution, and
// balance derivation. The ledger rows in storage are the sole source of
// truth for money; nothing here caches a balance.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/id"
	"github.com/folioapp/folio-server/internal/library"
	"github.com/folioapp/folio-server/internal/payment"
	"github.com/folioapp/folio-server/internal/store"
)

// Notifier delivers best-effort notifications. Implementations must not
// block the caller; delivery failure never unwinds a monetary write.
type Notifier interface {
	Notify(userID string, typ domain.NotificationType, title, message, link string)
}

// PurchaseService orchestrates a single buy action: card validation,
// idempotency, ledger append, ownership grant, and author notification.
type PurchaseService struct {
	store    store.Store
	library  *library.Service
	fees     *FeeResolver
	cards    *payment.Validator
	notifier Notifier
	logger   *slog.Logger
}

// NewPurchaseService creates a new purchase orchestrator.
func NewPurchaseService(st store.Store, lib *library.Service, fees *FeeResolver, cards *payment.Validator, notifier Notifier, logger *slog.Logger) *PurchaseService {
	return &PurchaseService{
		store:    st,
		library:  lib,
		fees:     fees,
		cards:    cards,
		notifier: notifier,
		logger:   logger,
	}
}

// PurchaseResult reports the outcome of ConfirmPurchase.
type PurchaseResult struct {
	Transaction *domain.Transaction `json:"transaction"`
	Already     bool                `json:"already"`
}

// ConfirmPurchase settles a purchase of bookID by buyerID paid with card.
//
// The operation is at-most-once per (buyer, book): a repeated request returns
// the original transaction with Already=true and charges nothing. The
// application-level check here is a fast path; the storage uniqueness
// constraint is what holds under concurrent requests, and a constraint
// violation is folded into the same idempotent-success path.
func (s *PurchaseService) ConfirmPurchase(ctx context.Context, buyerID, bookID string, card payment.Card) (*PurchaseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if bookID == "" {
		return nil, domainerrors.Validation("book_id is required")
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.Price.IsPositive() {
		return nil, domainerrors.Validation("book is not for sale")
	}
	if book.AuthorID == buyerID {
		return nil, domainerrors.Validation("authors cannot purchase their own books")
	}

	// Fast-path idempotency check before touching the card.
	if existing, err := s.store.GetSaleByBuyerAndBook(ctx, buyerID, bookID); err == nil {
		return s.alreadyPurchased(ctx, existing)
	} else if !domainerrors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}

	if err := s.cards.Validate(card); err != nil {
		return nil, err
	}

	percent, usedDefault := s.fees.Resolve(ctx, domain.SettingSaleFeePercent)
	adminFee, authorEarning := domain.SplitFee(book.Price, percent)

	txnID, err := id.Generate("txn")
	if err != nil {
		return nil, fmt.Errorf("generate transaction ID: %w", err)
	}

	txn := &domain.Transaction{
		ID:            txnID,
		Kind:          domain.TransactionSale,
		BuyerID:       buyerID,
		AuthorID:      book.AuthorID,
		BookID:        bookID,
		Amount:        book.Price,
		AdminFee:      adminFee,
		AuthorNet:     authorEarning,
		Status:        domain.StatusCompleted,
		PaymentStatus: domain.PaymentCompleted,
		CreatedAt:     time.Now(),
	}

	err = s.store.AppendSale(ctx, txn)
	if domainerrors.Is(err, store.ErrAlreadyExists) {
		// A concurrent request won the race; treat as idempotent success.
		existing, getErr := s.store.GetSaleByBuyerAndBook(ctx, buyerID, bookID)
		if getErr != nil {
			return nil, fmt.Errorf("load concurrent sale: %w", getErr)
		}
		return s.alreadyPurchased(ctx, existing)
	}
	if err != nil {
		return nil, fmt.Errorf("append sale: %w", err)
	}

	s.logger.Info("sale settled",
		"transaction_id", txnID,
		"buyer_id", buyerID,
		"book_id", bookID,
		"author_id", book.AuthorID,
		"amount", book.Price.String(),
		"admin_fee", adminFee.String(),
		"author_earning", authorEarning.String(),
		"fee_default", usedDefault,
	)

	// The money is recorded; grant and notification failures are
	// post-commit conditions repaired asynchronously, never surfaced
	// to the buyer as a purchase failure.
	if _, err := s.library.Grant(ctx, buyerID, bookID, txnID); err != nil {
		s.logger.Error("ownership grant failed after sale, queued for reconciliation",
			"transaction_id", txnID,
			"buyer_id", buyerID,
			"book_id", bookID,
			"error", err,
		)
	}

	s.notifier.Notify(book.AuthorID, domain.NotificationSale,
		"Book sold",
		fmt.Sprintf("%q was purchased for %s (you earn %s)", book.Title, book.Price.StringFixed(domain.MoneyPlaces), authorEarning.StringFixed(domain.MoneyPlaces)),
		"/books/"+bookID,
	)

	return &PurchaseResult{Transaction: txn}, nil
}

// alreadyPurchased handles the idempotent path: the sale exists, so make
// sure the grant does too (repairing it inline if missing) and report success.
func (s *PurchaseService) alreadyPurchased(ctx context.Context, txn *domain.Transaction) (*PurchaseResult, error) {
	if _, err := s.library.Grant(ctx, txn.BuyerID, txn.BookID, txn.ID); err != nil {
		s.logger.Error("grant repair failed on repeated purchase",
			"transaction_id", txn.ID,
			"buyer_id", txn.BuyerID,
			"book_id", txn.BookID,
			"error", err,
		)
	}
	return &PurchaseResult{Transaction: txn, Already: true}, nil
}
