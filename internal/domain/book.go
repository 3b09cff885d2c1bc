package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is a catalog entry. The ledger core only needs price, author and
// whether the content is monetized; everything else lives with the catalog.
type Book struct {
	ID          string          `json:"id"`
	AuthorID    string          `json:"author_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Monetized reports whether full-content access requires a purchase.
// Free books are unlocked by any library entry.
func (b *Book) Monetized() bool {
	return b.Price.IsPositive()
}
