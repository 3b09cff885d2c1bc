package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes the two monetary events recorded in the ledger.
type TransactionKind string

const (
	// TransactionSale records a buyer purchasing access to a book.
	TransactionSale TransactionKind = "SALE"
	// TransactionPayout records an author requesting withdrawal of earnings.
	TransactionPayout TransactionKind = "PAYOUT"
)

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	// StatusCompleted marks a settled sale.
	StatusCompleted TransactionStatus = "COMPLETED"
	// StatusPending marks a payout awaiting back-office settlement.
	StatusPending TransactionStatus = "PENDING"
	// StatusPaid marks a payout that has been settled externally.
	StatusPaid TransactionStatus = "PAID"
)

// PaymentStatus mirrors TransactionStatus in lowercase for aggregate queries.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
)

// Transaction is an immutable ledger entry. Only Status/PaymentStatus may
// transition after the entry is appended; every other field is written once.
// The ledger is the sole source of truth for balances.
type Transaction struct {
	ID            string            `json:"id"`
	Kind          TransactionKind   `json:"kind"`
	BuyerID       string            `json:"buyer_id,omitempty"`
	AuthorID      string            `json:"author_id"`
	BookID        string            `json:"book_id,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	AdminFee      decimal.Decimal   `json:"admin_fee"`
	AuthorNet     decimal.Decimal   `json:"author_net"`
	Status        TransactionStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Reconciles reports whether the entry's fee split adds back up to its amount
// within one minor currency unit.
func (t *Transaction) Reconciles() bool {
	return ReconcilesWith(t.Amount, t.AdminFee, t.AuthorNet)
}

// TransactionFilter selects ledger entries for queries. Zero-value fields are
// ignored; set fields are combined with AND.
type TransactionFilter struct {
	AuthorID      string
	BuyerID       string
	BookID        string
	Kind          TransactionKind
	Status        TransactionStatus
	PaymentStatus PaymentStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
