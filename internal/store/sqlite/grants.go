package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/store"
)

// grantColumns must match the scan order in scanGrant.
const grantColumns = `id, user_id, book_id, transaction_id, acquired_at`

func scanGrant(scanner interface{ Scan(dest ...any) error }) (*domain.Grant, error) {
	var g domain.Grant
	var transactionID sql.NullString
	var acquiredAt string

	err := scanner.Scan(
		&g.ID,
		&g.UserID,
		&g.BookID,
		&transactionID,
		&acquiredAt,
	)
	if err != nil {
		return nil, err
	}

	if transactionID.Valid {
		g.TransactionID = transactionID.String
	}

	g.AcquiredAt, err = parseTime(acquiredAt)
	if err != nil {
		return nil, err
	}

	return &g, nil
}

// CreateGrant inserts an ownership grant.
// Returns store.ErrAlreadyExists if the user already holds a grant for the book.
func (s *Store) CreateGrant(ctx context.Context, grant *domain.Grant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO grants (id, user_id, book_id, transaction_id, acquired_at)
		VALUES (?, ?, ?, ?, ?)`,
		grant.ID,
		grant.UserID,
		grant.BookID,
		nullString(grant.TransactionID),
		formatTime(grant.AcquiredAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("grant already exists for user and book")
		}
		return err
	}
	return nil
}

// LinkGrantTransaction attaches a sale to a previously soft grant for the
// pair. Purchase-backed grants are never rewritten; returns store.ErrNotFound
// when the pair has no unlinked grant.
func (s *Store) LinkGrantTransaction(ctx context.Context, userID, bookID, transactionID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE grants SET transaction_id = ?
		WHERE user_id = ? AND book_id = ? AND transaction_id IS NULL`,
		transactionID, userID, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("no unlinked grant for user and book")
	}
	return nil
}

// GetGrant retrieves the grant for a user/book pair.
func (s *Store) GetGrant(ctx context.Context, userID, bookID string) (*domain.Grant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE user_id = ? AND book_id = ?`,
		userID, bookID)
	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("grant not found")
	}
	return g, err
}

// ListGrantsForUser returns all grants held by a user, newest first.
func (s *Store) ListGrantsForUser(ctx context.Context, userID string) ([]*domain.Grant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+grantColumns+` FROM grants WHERE user_id = ? ORDER BY acquired_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []*domain.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// DeleteGrant removes a grant (library removal). The originating transaction,
// if any, stays in the ledger untouched.
func (s *Store) DeleteGrant(ctx context.Context, userID, bookID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM grants WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("grant not found")
	}
	return nil
}
