package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "List library",
		Description: "Returns the authenticated user's library entries",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "addToLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library",
		Summary:     "Add to library",
		Description: "Adds a book to the user's library without a purchase. Monetized content stays locked.",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddToLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFromLibrary",
		Method:      http.MethodDelete,
		Path:        "/api/v1/library/{bookID}",
		Summary:     "Remove from library",
		Description: "Removes a book from the user's library. The ledger entry, if any, is untouched.",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveFromLibrary)
}

// === DTOs ===

// ListLibraryInput contains parameters for listing the library.
type ListLibraryInput struct {
	Authorization string `header:"Authorization"`
}

// LibraryEntryResponse is a single library entry with its book.
type LibraryEntryResponse struct {
	Book          BookResponse `json:"book" doc:"The book"`
	TransactionID string       `json:"transaction_id,omitempty" doc:"Sale that produced this entry, if purchased"`
	Unlocked      bool         `json:"unlocked" doc:"Whether full content is readable"`
	AcquiredAt    time.Time    `json:"acquired_at" doc:"When the entry was created"`
}

// ListLibraryResponse contains the user's library.
type ListLibraryResponse struct {
	Entries []LibraryEntryResponse `json:"entries" doc:"Library entries"`
}

// ListLibraryOutput wraps the library response for Huma.
type ListLibraryOutput struct {
	Body ListLibraryResponse
}

// AddToLibraryRequest is the request body for adding a library entry.
type AddToLibraryRequest struct {
	BookID string `json:"book_id" validate:"required" doc:"Book ID to add"`
}

// AddToLibraryInput wraps the add request for Huma.
type AddToLibraryInput struct {
	Authorization string `header:"Authorization"`
	Body          AddToLibraryRequest
}

// LibraryEntryOutput wraps a single library entry for Huma.
type LibraryEntryOutput struct {
	Body LibraryEntryResponse
}

// RemoveFromLibraryInput contains parameters for removing a library entry.
type RemoveFromLibraryInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookID" doc:"Book ID to remove"`
}

// RemoveFromLibraryOutput is the empty success response.
type RemoveFromLibraryOutput struct {
	Status int
}

// === Handlers ===

func (s *Server) handleListLibrary(ctx context.Context, input *ListLibraryInput) (*ListLibraryOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	entries, err := s.services.Library.List(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]LibraryEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = LibraryEntryResponse{
			Book:          toBookResponse(e.Book),
			TransactionID: e.Grant.TransactionID,
			Unlocked:      e.Unlocked,
			AcquiredAt:    e.Grant.AcquiredAt,
		}
	}

	return &ListLibraryOutput{Body: ListLibraryResponse{Entries: resp}}, nil
}

func (s *Server) handleAddToLibrary(ctx context.Context, input *AddToLibraryInput) (*LibraryEntryOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.Get(ctx, input.Body.BookID)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Library.AddToLibrary(ctx, user.ID, book.ID)
	if err != nil {
		return nil, err
	}

	unlocked, err := s.services.Library.Unlocked(ctx, user.ID, book)
	if err != nil {
		return nil, err
	}

	return &LibraryEntryOutput{
		Body: LibraryEntryResponse{
			Book:          toBookResponse(book),
			TransactionID: result.Grant.TransactionID,
			Unlocked:      unlocked,
			AcquiredAt:    result.Grant.AcquiredAt,
		},
	}, nil
}

func (s *Server) handleRemoveFromLibrary(ctx context.Context, input *RemoveFromLibraryInput) (*RemoveFromLibraryOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.RemoveFromLibrary(ctx, user.ID, input.BookID); err != nil {
		return nil, err
	}

	return &RemoveFromLibraryOutput{Status: http.StatusNoContent}, nil
}
