package domain

import "time"

// NotificationType classifies notification events emitted by the ledger.
type NotificationType string

const (
	NotificationSale              NotificationType = "sale"
	NotificationWithdrawalPending NotificationType = "withdrawal_pending"
	NotificationWithdrawalPaid    NotificationType = "withdrawal_paid"
)

// Notification is a message delivered to a user. Delivery is best-effort
// and never gates the monetary write that produced it.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
