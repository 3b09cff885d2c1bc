// Package catalog manages the book listings that the ledger sells access to.
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/id"
	"github.com/folioapp/folio-server/internal/store"
	"github.com/folioapp/folio-server/internal/validation"
)

// Service orchestrates catalog operations.
type Service struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewService creates a new catalog service.
func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:     st,
		logger:    logger,
		validator: validation.New(),
	}
}

// PublishRequest contains fields for publishing a book.
type PublishRequest struct {
	Title       string          `json:"title" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
}

// Publish creates a new book listing owned by the given author.
// A zero price publishes the book as free content.
func (s *Service) Publish(ctx context.Context, authorID string, req PublishRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, domainerrors.Validation("price cannot be negative")
	}
	if req.Price.Exponent() < -domain.MoneyPlaces {
		return nil, domainerrors.Validation("price cannot have sub-cent precision")
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	book := &domain.Book{
		ID:          bookID,
		AuthorID:    authorID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	s.logger.Info("Book published",
		"book_id", book.ID,
		"author_id", authorID,
		"price", book.Price.StringFixed(2),
	)

	return book, nil
}

// Get returns a single book.
func (s *Service) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// List returns all books in the catalog.
func (s *Service) List(ctx context.Context) ([]*domain.Book, error) {
	return s.store.ListBooks(ctx)
}

// ListByAuthor returns all books published by an author.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]*domain.Book, error) {
	return s.store.ListBooksByAuthor(ctx, authorID)
}

// UpdateRequest contains optional fields for updating a book listing.
type UpdateRequest struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
}

// Update modifies a book listing. Only the owning author may update it.
// Price changes affect future sales only; settled ledger entries keep the
// amounts they were written with.
func (s *Service) Update(ctx context.Context, authorID, bookID string, req UpdateRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.AuthorID != authorID {
		return nil, domainerrors.Forbidden("only the author can update this book")
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, domainerrors.Validation("price cannot be negative")
		}
		if req.Price.Exponent() < -domain.MoneyPlaces {
			return nil, domainerrors.Validation("price cannot have sub-cent precision")
		}
		book.Price = *req.Price
	}
	book.UpdatedAt = time.Now()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}
