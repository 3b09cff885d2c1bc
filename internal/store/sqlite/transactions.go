package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/store"
)

// payoutRetries bounds the optimistic retry loop in AppendPayout. A retry
// happens only when a concurrent writer invalidated our read snapshot.
const payoutRetries = 3

// txnColumns must match the scan order in scanTransaction.
const txnColumns = `id, kind, buyer_id, author_id, book_id, amount, admin_fee, author_net, status, payment_status, created_at`

func scanTransaction(scanner interface{ Scan(dest ...any) error }) (*domain.Transaction, error) {
	var t domain.Transaction
	var buyerID, bookID sql.NullString
	var amount, adminFee, authorNet, createdAt string

	err := scanner.Scan(
		&t.ID,
		&t.Kind,
		&buyerID,
		&t.AuthorID,
		&bookID,
		&amount,
		&adminFee,
		&authorNet,
		&t.Status,
		&t.PaymentStatus,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if buyerID.Valid {
		t.BuyerID = buyerID.String
	}
	if bookID.Valid {
		t.BookID = bookID.String
	}

	if t.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if t.AdminFee, err = parseDecimal(adminFee); err != nil {
		return nil, err
	}
	if t.AuthorNet, err = parseDecimal(authorNet); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &t, nil
}

// validateEntry enforces the ledger-level invariants on any appended entry:
// positive amount and a fee split that reconciles with it.
func validateEntry(txn *domain.Transaction) error {
	if !txn.Amount.IsPositive() {
		return store.ErrInvalidInput.WithMessage("transaction amount must be positive")
	}
	if !txn.Reconciles() {
		return store.ErrInvalidInput.WithMessage("fee split does not reconcile with amount")
	}
	return nil
}

func insertTransaction(ctx context.Context, execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, txn *domain.Transaction) error {
	_, err := execer.ExecContext(ctx, `
		INSERT INTO transactions (
			id, kind, buyer_id, author_id, book_id,
			amount, admin_fee, author_net, status, payment_status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.Kind,
		nullString(txn.BuyerID),
		txn.AuthorID,
		nullString(txn.BookID),
		txn.Amount.String(),
		txn.AdminFee.String(),
		txn.AuthorNet.String(),
		txn.Status,
		txn.PaymentStatus,
		formatTime(txn.CreatedAt),
	)
	return err
}

// AppendSale appends a SALE entry to the ledger.
//
// The partial unique index on (buyer_id, book_id) makes this the authoritative
// idempotency check: a second sale for the same pair fails with
// store.ErrAlreadyExists no matter how the requests interleave.
func (s *Store) AppendSale(ctx context.Context, txn *domain.Transaction) error {
	if txn.Kind != domain.TransactionSale {
		return store.ErrInvalidInput.WithMessage("AppendSale requires kind SALE")
	}
	if txn.BuyerID == "" || txn.BookID == "" {
		return store.ErrInvalidInput.WithMessage("sale requires buyer_id and book_id")
	}
	if err := validateEntry(txn); err != nil {
		return err
	}

	if err := insertTransaction(ctx, s.db, txn); err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("sale already recorded for buyer and book")
		}
		return err
	}
	return nil
}

// AppendPayout appends a PENDING PAYOUT entry, re-deriving the author's
// available balance inside the same storage transaction as the insert.
// Returns the balance observed at decision time; if it is lower than the
// payout amount the entry is not written and ErrInsufficientBalance is
// returned.
//
// Under WAL a concurrent writer that commits between our balance read and our
// insert invalidates the snapshot and the commit fails busy; the operation is
// retried with a fresh balance so two simultaneous withdrawals can never
// jointly overdraw the account.
func (s *Store) AppendPayout(ctx context.Context, txn *domain.Transaction) (decimal.Decimal, error) {
	if txn.Kind != domain.TransactionPayout {
		return decimal.Zero, store.ErrInvalidInput.WithMessage("AppendPayout requires kind PAYOUT")
	}
	if err := validateEntry(txn); err != nil {
		return decimal.Zero, err
	}

	var lastErr error
	for attempt := 0; attempt < payoutRetries; attempt++ {
		available, err := s.tryAppendPayout(ctx, txn)
		if err == nil || !isBusy(err) {
			return available, err
		}
		lastErr = err
	}
	return decimal.Zero, lastErr
}

func (s *Store) tryAppendPayout(ctx context.Context, txn *domain.Transaction) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	available, err := authorBalance(ctx, tx, txn.AuthorID)
	if err != nil {
		return decimal.Zero, err
	}

	if available.LessThan(txn.Amount) {
		return available, store.ErrInsufficientBalance
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return available, err
	}
	if err := tx.Commit(); err != nil {
		return available, err
	}
	return available, nil
}

// isBusy reports whether err is a SQLite busy/snapshot conflict worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// authorBalance derives the available balance from the ledger:
// settled sale earnings minus payout amounts. PAID payouts stay in the sum
// because that money has left the account for good. Always recomputed, never
// read from a stored counter.
func authorBalance(ctx context.Context, q queryer, authorID string) (decimal.Decimal, error) {
	earned, err := sumColumn(ctx, q,
		`SELECT author_net FROM transactions
		 WHERE author_id = ? AND kind = 'SALE' AND status = 'COMPLETED'`, authorID)
	if err != nil {
		return decimal.Zero, err
	}

	withdrawn, err := sumColumn(ctx, q,
		`SELECT amount FROM transactions
		 WHERE author_id = ? AND kind = 'PAYOUT'`, authorID)
	if err != nil {
		return decimal.Zero, err
	}

	return earned.Sub(withdrawn), nil
}

// sumColumn sums a decimal TEXT column in Go. SQL aggregation would coerce
// the values to floating point and leak rounding error into balances.
func sumColumn(ctx context.Context, q queryer, query string, args ...any) (decimal.Decimal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return decimal.Zero, err
		}
		d, err := parseDecimal(v)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

// AuthorBalance derives the author's available balance from the ledger.
func (s *Store) AuthorBalance(ctx context.Context, authorID string) (decimal.Decimal, error) {
	return authorBalance(ctx, s.db, authorID)
}

// GetTransaction retrieves a ledger entry by ID.
func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("transaction not found")
	}
	return t, err
}

// GetSaleByBuyerAndBook retrieves the unique SALE entry for a buyer/book pair.
func (s *Store) GetSaleByBuyerAndBook(ctx context.Context, buyerID, bookID string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txnColumns+` FROM transactions
		 WHERE kind = 'SALE' AND buyer_id = ? AND book_id = ?`, buyerID, bookID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("sale not found")
	}
	return t, err
}

// ListTransactions returns ledger entries matching the filter, newest first.
func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT ` + txnColumns + ` FROM transactions`
	var conds []string
	var args []any

	if filter.AuthorID != "" {
		conds = append(conds, "author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.BuyerID != "" {
		conds = append(conds, "buyer_id = ?")
		args = append(args, filter.BuyerID)
	}
	if filter.BookID != "" {
		conds = append(conds, "book_id = ?")
		args = append(args, filter.BookID)
	}
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		conds = append(conds, "payment_status = ?")
		args = append(args, string(filter.PaymentStatus))
	}
	if filter.CreatedAfter != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, formatTime(*filter.CreatedAfter))
	}
	if filter.CreatedBefore != nil {
		conds = append(conds, "created_at < ?")
		args = append(args, formatTime(*filter.CreatedBefore))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// MarkPayoutPaid transitions a PENDING payout to PAID.
// Settlement itself happens outside the system; this records its completion.
func (s *Store) MarkPayoutPaid(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET status = 'PAID', payment_status = 'completed'
		WHERE id = ? AND kind = 'PAYOUT' AND status = 'PENDING'`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetTransaction(ctx, id); err != nil {
			return err
		}
		return store.ErrInvalidInput.WithMessage("transaction is not a pending payout")
	}
	return nil
}

// ListSalesMissingGrants returns COMPLETED SALE entries whose buyer has no
// purchase-backed grant for the purchased book: either no grant row at all,
// or a soft entry that was never linked to the sale. Used by the
// reconciliation job to repair interrupted purchases.
func (s *Store) ListSalesMissingGrants(ctx context.Context) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+qualified(txnColumns, "t")+` FROM transactions t
		LEFT JOIN grants g ON g.user_id = t.buyer_id AND g.book_id = t.book_id
		WHERE t.kind = 'SALE' AND t.status = 'COMPLETED'
		  AND (g.id IS NULL OR g.transaction_id IS NULL)
		ORDER BY t.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// qualified prefixes each column in a comma-separated list with a table alias.
func qualified(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}
