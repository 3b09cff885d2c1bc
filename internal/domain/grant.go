package domain

import "time"

// Grant is the materialized record that a user may access a book.
//
// A grant backed by a transaction unlocks the book's full content. A grant
// without a transaction is a "soft" library entry (manually added or free);
// it counts for library membership but does not unlock monetized content.
type Grant struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	BookID        string    `json:"book_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	AcquiredAt    time.Time `json:"acquired_at"`
}

// Purchased reports whether the grant originated from a sale transaction.
func (g *Grant) Purchased() bool {
	return g.TransactionID != ""
}
