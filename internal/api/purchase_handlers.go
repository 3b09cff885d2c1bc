package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioapp/folio-server/internal/domain"
	"github.com/folioapp/folio-server/internal/payment"
)

func (s *Server) registerPurchaseRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "confirmPurchase",
		Method:      http.MethodPost,
		Path:        "/api/v1/purchases",
		Summary:     "Confirm purchase",
		Description: "Settles a book purchase: appends the sale to the ledger and grants the buyer access. Repeating a purchase returns the original sale and charges nothing.",
		Tags:        []string{"Purchases"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleConfirmPurchase)
}

// === DTOs ===

// CardDetails carries the payment card fields for a purchase.
type CardDetails struct {
	Number string `json:"number" validate:"required,max=19" doc:"Card number"`
	Expiry string `json:"expiry" validate:"required,max=7" doc:"Expiry as MM/YY or MM/YYYY"`
	CVC    string `json:"cvc" validate:"required,max=4" doc:"Card verification code"`
	Name   string `json:"name,omitempty" validate:"omitempty,max=100" doc:"Cardholder name"`
}

// ConfirmPurchaseRequest is the request body for a purchase.
type ConfirmPurchaseRequest struct {
	BookID string      `json:"book_id" validate:"required" doc:"Book to purchase"`
	Card   CardDetails `json:"card" doc:"Payment card"`
}

// ConfirmPurchaseInput wraps the purchase request for Huma.
type ConfirmPurchaseInput struct {
	Authorization string `header:"Authorization"`
	Body          ConfirmPurchaseRequest
}

// TransactionResponse contains ledger entry data in API responses.
type TransactionResponse struct {
	ID            string    `json:"id" doc:"Transaction ID"`
	Kind          string    `json:"kind" doc:"SALE or PAYOUT"`
	BuyerID       string    `json:"buyer_id,omitempty" doc:"Buyer's user ID (sales only)"`
	AuthorID      string    `json:"author_id" doc:"Author's user ID"`
	BookID        string    `json:"book_id,omitempty" doc:"Book ID (sales only)"`
	Amount        string    `json:"amount" doc:"Gross amount"`
	AdminFee      string    `json:"admin_fee" doc:"Platform fee"`
	AuthorNet     string    `json:"author_net" doc:"Author's share"`
	Status        string    `json:"status" doc:"COMPLETED, PENDING, or PAID"`
	PaymentStatus string    `json:"payment_status" doc:"Payment settlement state"`
	CreatedAt     time.Time `json:"created_at" doc:"When the entry was appended"`
}

// ConfirmPurchaseResponse reports the settled sale.
type ConfirmPurchaseResponse struct {
	Transaction TransactionResponse `json:"transaction" doc:"The sale ledger entry"`
	Already     bool                `json:"already" doc:"True when the purchase had settled previously"`
}

// ConfirmPurchaseOutput wraps the purchase response for Huma.
type ConfirmPurchaseOutput struct {
	Body ConfirmPurchaseResponse
}

// === Handlers ===

func (s *Server) handleConfirmPurchase(ctx context.Context, input *ConfirmPurchaseInput) (*ConfirmPurchaseOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.allowLedgerWrite(user.ID); err != nil {
		return nil, err
	}

	result, err := s.services.Purchase.ConfirmPurchase(ctx, user.ID, input.Body.BookID, payment.Card{
		Number:     input.Body.Card.Number,
		Expiry:     input.Body.Card.Expiry,
		CVC:        input.Body.Card.CVC,
		HolderName: input.Body.Card.Name,
	})
	if err != nil {
		return nil, err
	}

	return &ConfirmPurchaseOutput{
		Body: ConfirmPurchaseResponse{
			Transaction: toTransactionResponse(result.Transaction),
			Already:     result.Already,
		},
	}, nil
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Kind:          string(t.Kind),
		BuyerID:       t.BuyerID,
		AuthorID:      t.AuthorID,
		BookID:        t.BookID,
		Amount:        t.Amount.StringFixed(2),
		AdminFee:      t.AdminFee.StringFixed(2),
		AuthorNet:     t.AuthorNet.StringFixed(2),
		Status:        string(t.Status),
		PaymentStatus: string(t.PaymentStatus),
		CreatedAt:     t.CreatedAt,
	}
}
