package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/store"
)

// bookColumns must match the scan order in scanBook.
const bookColumns = `id, author_id, title, description, price, created_at, updated_at`

func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book
	var description sql.NullString
	var price, createdAt, updatedAt string

	err := scanner.Scan(
		&b.ID,
		&b.AuthorID,
		&b.Title,
		&description,
		&price,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		b.Description = description.String
	}

	b.Price, err = parseDecimal(price)
	if err != nil {
		return nil, err
	}
	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// CreateBook inserts a new catalog entry.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, author_id, title, description, price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		book.AuthorID,
		book.Title,
		nullString(book.Description),
		book.Price.String(),
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("book already exists")
		}
		return err
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("book not found")
	}
	return b, err
}

// UpdateBook updates a book's mutable fields.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET title = ?, description = ?, price = ?, updated_at = ?
		WHERE id = ?`,
		book.Title,
		nullString(book.Description),
		book.Price.String(),
		formatTime(book.UpdatedAt),
		book.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound.WithMessage("book not found")
	}
	return nil
}

// ListBooks returns the full catalog ordered by creation time.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY created_at`)
}

// ListBooksByAuthor returns all books published by the given author.
func (s *Store) ListBooksByAuthor(ctx context.Context, authorID string) ([]*domain.Book, error) {
	return s.queryBooks(ctx,
		`SELECT `+bookColumns+` FROM books WHERE author_id = ? ORDER BY created_at`, authorID)
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
