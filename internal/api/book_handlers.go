package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/folioapp/folio-server/internal/catalog"
	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "publishBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books",
		Summary:     "Publish book",
		Description: "Creates a new book listing owned by the authenticated user",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePublishBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the full catalog",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates a book listing. Only the owning author may update it.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookAccess",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/access",
		Summary:     "Get book access",
		Description: "Reports whether the authenticated user can read the book's full content",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBookAccess)
}

// === DTOs ===

// PublishBookRequest is the request body for publishing a book.
type PublishBookRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200" doc:"Book title"`
	Description string `json:"description,omitempty" validate:"omitempty,max=5000" doc:"Book description"`
	Price       string `json:"price" doc:"Price as a decimal string, e.g. 9.99. Zero publishes free content."`
}

// PublishBookInput wraps the publish request for Huma.
type PublishBookInput struct {
	Authorization string `header:"Authorization"`
	Body          PublishBookRequest
}

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID          string    `json:"id" doc:"Book ID"`
	AuthorID    string    `json:"author_id" doc:"Owning author's user ID"`
	Title       string    `json:"title" doc:"Book title"`
	Description string    `json:"description,omitempty" doc:"Book description"`
	Price       string    `json:"price" doc:"Price as a decimal string"`
	Monetized   bool      `json:"monetized" doc:"Whether full content requires a purchase"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

// BookOutput wraps the book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// ListBooksResponse contains a list of books.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"Catalog entries"`
}

// ListBooksOutput wraps the list books response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// UpdateBookRequest is the request body for updating a book.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200" doc:"Book title"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=5000" doc:"Book description"`
	Price       *string `json:"price,omitempty" doc:"Price as a decimal string"`
}

// UpdateBookInput wraps the update request for Huma.
type UpdateBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
	Body          UpdateBookRequest
}

// BookAccessInput contains parameters for the access check.
type BookAccessInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Book ID"`
}

// BookAccessResponse reports content access for a book.
type BookAccessResponse struct {
	BookID   string `json:"book_id" doc:"Book ID"`
	Unlocked bool   `json:"unlocked" doc:"Whether the user can read the full content"`
}

// BookAccessOutput wraps the access response for Huma.
type BookAccessOutput struct {
	Body BookAccessResponse
}

// === Handlers ===

func (s *Server) handlePublishBook(ctx context.Context, input *PublishBookInput) (*BookOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	price, err := parseMoney(input.Body.Price, "price")
	if err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.Publish(ctx, user.ID, catalog.PublishRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Price:       price,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]BookResponse, len(books))
	for i, b := range books {
		resp[i] = toBookResponse(b)
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: resp}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	book, err := s.services.Catalog.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req := catalog.UpdateRequest{
		Title:       input.Body.Title,
		Description: input.Body.Description,
	}
	if input.Body.Price != nil {
		price, err := parseMoney(*input.Body.Price, "price")
		if err != nil {
			return nil, err
		}
		req.Price = &price
	}

	book, err := s.services.Catalog.Update(ctx, user.ID, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: toBookResponse(book)}, nil
}

func (s *Server) handleGetBookAccess(ctx context.Context, input *BookAccessInput) (*BookAccessOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.services.Library.Unlocked(ctx, user.ID, book)
	if err != nil {
		return nil, err
	}

	return &BookAccessOutput{
		Body: BookAccessResponse{
			BookID:   book.ID,
			Unlocked: unlocked,
		},
	}, nil
}

func toBookResponse(b *domain.Book) BookResponse {
	return BookResponse{
		ID:          b.ID,
		AuthorID:    b.AuthorID,
		Title:       b.Title,
		Description: b.Description,
		Price:       b.Price.StringFixed(2),
		Monetized:   b.Monetized(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// parseMoney parses a decimal string from a request body.
func parseMoney(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, domainerrors.Validationf("%s is not a valid decimal amount", field)
	}
	return d, nil
}
