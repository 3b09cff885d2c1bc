package ledger

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/library"
	"github.com/folioapp/folio-server/internal/payment"
	"github.com/folioapp/folio-server/internal/store"
	"github.com/folioapp/folio-server/internal/store/sqlite"
)

// testClock is the fixed "now" every card validator in these tests uses, so
// expiry assertions never rot.
var testClock = func() time.Time {
	return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
}

var validCard = payment.Card{
	Number:     "4242424242424242",
	Expiry:     "12/2033",
	CVC:        "123",
	HolderName: "Demo Buyer",
}

// notification captures one Notify call for assertions.
type notification struct {
	UserID  string
	Type    domain.NotificationType
	Title   string
	Message string
	Link    string
}

// recordingNotifier is a thread-safe Notifier that remembers every call.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Notify(userID string, typ domain.NotificationType, title, message, link string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{UserID: userID, Type: typ, Title: title, Message: message, Link: link})
}

func (n *recordingNotifier) byType(typ domain.NotificationType) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, e := range n.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// ledgerTestEnv wires real services over a throwaway sqlite store.
type ledgerTestEnv struct {
	store      store.Store
	library    *library.Service
	fees       *FeeResolver
	purchase   *PurchaseService
	withdrawal *WithdrawalService
	notifier   *recordingNotifier
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func setupLedgerTest(t *testing.T) *ledgerTestEnv {
	t.Helper()

	logger := testLogger()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	notifier := &recordingNotifier{}
	lib := library.NewService(st, logger)
	fees := NewFeeResolver(st, logger)
	cards := payment.NewValidatorAt(testClock)

	return &ledgerTestEnv{
		store:      st,
		library:    lib,
		fees:       fees,
		purchase:   NewPurchaseService(st, lib, fees, cards, notifier, logger),
		withdrawal: NewWithdrawalService(st, fees, notifier, logger),
		notifier:   notifier,
	}
}

// createTestUser inserts a user and returns its ID.
func (e *ledgerTestEnv) createTestUser(t *testing.T, id, email string) string {
	t.Helper()
	now := time.Now()
	err := e.store.CreateUser(context.Background(), &domain.User{
		ID:           id,
		Email:        email,
		DisplayName:  "Test User",
		PasswordHash: "$argon2id$fakehashfortest",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return id
}

// createTestBook inserts a book owned by authorID and returns its ID.
func (e *ledgerTestEnv) createTestBook(t *testing.T, id, authorID, price string) string {
	t.Helper()
	now := time.Now()
	err := e.store.CreateBook(context.Background(), &domain.Book{
		ID:        id,
		AuthorID:  authorID,
		Title:     "Test Book",
		Price:     decimal.RequireFromString(price),
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	return id
}

// === Purchase Tests ===

func TestConfirmPurchase_Success(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	author := env.createTestUser(t, "author-1", "author@example.com")
	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")
	book := env.createTestBook(t, "book-1", author, "10.00")

	result, err := env.purchase.ConfirmPurchase(ctx, buyer, book, validCard)
	require.NoError(t, err)
	require.NotNil(t, result.Transaction)
	assert.False(t, result.Already)

	txn := result.Transaction
	assert.Equal(t, domain.TransactionSale, txn.Kind)
	assert.Equal(t, domain.StatusCompleted, txn.Status)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("10.00")), "amount %s", txn.Amount)
	assert.True(t, txn.AdminFee.Equal(decimal.RequireFromString("2.00")), "fee %s", txn.AdminFee)
	assert.True(t, txn.AuthorNet.Equal(decimal.RequireFromString("8.00")), "net %s", txn.AuthorNet)

	// Ownership materialized as a purchase-backed grant.
	grant, err := env.store.GetGrant(ctx, buyer, book)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, grant.TransactionID)
	assert.True(t, grant.Purchased())

	// The author's balance reflects the earning.
	balance, err := env.withdrawal.AvailableBalance(ctx, author)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("8.00")), "balance %s", balance)

	// The author was told about the sale.
	sales := env.notifier.byType(domain.NotificationSale)
	require.Len(t, sales, 1)
	assert.Equal(t, author, sales[0].UserID)
}

func TestConfirmPurchase_Idempotent(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	author := env.createTestUser(t, "author-1", "author@example.com")
	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")
	book := env.createTestBook(t, "book-1", author, "10.00")

	first, err := env.purchase.ConfirmPurchase(ctx, buyer, book, validCard)
	require.NoError(t, err)

	// The repeat succeeds without charging again, even with a bad card.
	second, err := env.purchase.ConfirmPurchase(ctx, buyer, book, payment.Card{})
	require.NoError(t, err)
	assert.True(t, second.Already)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)

	txns, err := env.store.ListTransactions(ctx, domain.TransactionFilter{BuyerID: buyer, BookID: book})
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	// One sale, one notification.
	assert.Len(t, env.notifier.byType(domain.NotificationSale), 1)
}

func TestConfirmPurchase_AfterLibraryAdd(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	author := env.createTestUser(t, "author-1", "author@example.com")
	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")
	book := env.createTestBook(t, "book-1", author, "9.99")

	// Buyer bookmarks the book first, then pays for it. The soft entry must
	// not swallow the purchase-backed grant.
	_, err := env.library.AddToLibrary(ctx, buyer, book)
	require.NoError(t, err)

	result, err := env.purchase.ConfirmPurchase(ctx, buyer, book, validCard)
	require.NoError(t, err)
	assert.False(t, result.Already)

	grant, err := env.store.GetGrant(ctx, buyer, book)
	require.NoError(t, err)
	assert.Equal(t, result.Transaction.ID, grant.TransactionID)

	bookRec, err := env.store.GetBook(ctx, book)
	require.NoError(t, err)
	unlocked, err := env.library.Unlocked(ctx, buyer, bookRec)
	require.NoError(t, err)
	assert.True(t, unlocked, "buyer paid for the book, content must be unlocked")
}

func TestConfirmPurchase_ConcurrentSingleSale(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	author := env.createTestUser(t, "author-1", "author@example.com")
	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")
	book := env.createTestBook(t, "book-1", author, "10.00")

	// Two simultaneous purchases of the same pair; the storage constraint
	// decides the winner, the loser folds into idempotent success.
	const workers = 2
	var wg sync.WaitGroup
	results := make([]*PurchaseResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = env.purchase.ConfirmPurchase(ctx, buyer, book, validCard)
		}(i)
	}
	wg.Wait()

	settled := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		if !results[i].Already {
			settled++
		}
	}
	assert.Equal(t, 1, settled, "exactly one call must settle the sale")
	assert.Equal(t, results[0].Transaction.ID, results[1].Transaction.ID)

	txns, err := env.store.ListTransactions(ctx, domain.TransactionFilter{
		BuyerID: buyer,
		Kind:    domain.TransactionSale,
	})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestConfirmPurchase_FreeBookRejected(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	author := env.createTestUser(t, "author-1", "author@example.com")
	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")
	book := env.createTestBook(t, "book-1", author, "0")

	_, err := env.purchase.ConfirmPurchase(ctx, buyer, book, validCard)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
}

func TestConfirmPurchase_SelfPurchaseRejected(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	author := env.createTestUser(t, "author-1", "author@example.com")
	book := env.createTestBook(t, "book-1", author, "10.00")

	_, err := env.purchase.ConfirmPurchase(ctx, author, book, validCard)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
}

func TestConfirmPurchase_UnknownBook(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")

	_, err := env.purchase.ConfirmPurchase(ctx, buyer, "book-missing", validCard)
	assert.True(t, domainerrors.Is(err, store.ErrNotFound), "got %v", err)
}

func TestConfirmPurchase_DeclinedCardLeavesNoTrace(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	author := env.createTestUser(t, "author-1", "author@example.com")
	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")
	book := env.createTestBook(t, "book-1", author, "10.00")

	expired := validCard
	expired.Expiry = "01/24"

	_, err := env.purchase.ConfirmPurchase(ctx, buyer, book, expired)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrCardDeclined), "got %v", err)

	// Nothing was written anywhere.
	txns, err := env.store.ListTransactions(ctx, domain.TransactionFilter{BuyerID: buyer})
	require.NoError(t, err)
	assert.Empty(t, txns)

	_, err = env.store.GetGrant(ctx, buyer, book)
	assert.True(t, domainerrors.Is(err, store.ErrNotFound))

	balance, err := env.withdrawal.AvailableBalance(ctx, author)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.Empty(t, env.notifier.byType(domain.NotificationSale))
}

func TestConfirmPurchase_CustomFeePercent(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	require.NoError(t, env.fees.SetPercent(ctx, domain.SettingSaleFeePercent, decimal.NewFromInt(10)))

	author := env.createTestUser(t, "author-1", "author@example.com")
	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")
	book := env.createTestBook(t, "book-1", author, "9.99")

	result, err := env.purchase.ConfirmPurchase(ctx, buyer, book, validCard)
	require.NoError(t, err)

	// 10% of 9.99 rounds to 1.00; the author keeps the remainder exactly.
	assert.True(t, result.Transaction.AdminFee.Equal(decimal.RequireFromString("1.00")), "fee %s", result.Transaction.AdminFee)
	assert.True(t, result.Transaction.AuthorNet.Equal(decimal.RequireFromString("8.99")), "net %s", result.Transaction.AuthorNet)
	assert.True(t, result.Transaction.Reconciles())
}

func TestConfirmPurchase_MissingBookID(t *testing.T) {
	env := setupLedgerTest(t)

	buyer := env.createTestUser(t, "buyer-1", "buyer@example.com")

	_, err := env.purchase.ConfirmPurchase(context.Background(), buyer, "", validCard)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
}
