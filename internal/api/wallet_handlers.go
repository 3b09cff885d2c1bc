package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
)

func (s *Server) registerWalletRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBalance",
		Method:      http.MethodGet,
		Path:        "/api/v1/wallet/balance",
		Summary:     "Get balance",
		Description: "Returns the authenticated author's available balance, derived from the ledger",
		Tags:        []string{"Wallet"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBalance)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTransactions",
		Method:      http.MethodGet,
		Path:        "/api/v1/wallet/transactions",
		Summary:     "List transactions",
		Description: "Returns the authenticated user's ledger entries, as author or buyer",
		Tags:        []string{"Wallet"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTransactions)

	huma.Register(s.api, huma.Operation{
		OperationID: "requestWithdrawal",
		Method:      http.MethodPost,
		Path:        "/api/v1/wallet/withdrawals",
		Summary:     "Request withdrawal",
		Description: "Records a pending payout of part of the author's available balance",
		Tags:        []string{"Wallet"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRequestWithdrawal)
}

// === DTOs ===

// GetBalanceInput contains parameters for the balance query.
type GetBalanceInput struct {
	Authorization string `header:"Authorization"`
}

// BalanceResponse reports an author's available balance.
type BalanceResponse struct {
	Available string `json:"available" doc:"Withdrawable balance as a decimal string"`
}

// BalanceOutput wraps the balance response for Huma.
type BalanceOutput struct {
	Body BalanceResponse
}

// ListTransactionsInput contains query parameters for listing ledger entries.
type ListTransactionsInput struct {
	Authorization string `header:"Authorization"`
	Role          string `query:"role" enum:"author,buyer" doc:"List entries where the user is the author (default) or the buyer"`
	Kind          string `query:"kind" enum:"SALE,PAYOUT" doc:"Filter by transaction kind"`
	Status        string `query:"status" enum:"COMPLETED,PENDING,PAID" doc:"Filter by status"`
	BookID        string `query:"book_id" doc:"Filter by book"`
}

// ListTransactionsResponse contains ledger entries.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions" doc:"Ledger entries, newest first"`
}

// ListTransactionsOutput wraps the transaction list for Huma.
type ListTransactionsOutput struct {
	Body ListTransactionsResponse
}

// WithdrawalRequest is the request body for a withdrawal.
type WithdrawalRequest struct {
	Amount string `json:"amount" validate:"required" doc:"Gross amount to withdraw, as a decimal string"`
}

// WithdrawalInput wraps the withdrawal request for Huma.
type WithdrawalInput struct {
	Authorization string `header:"Authorization"`
	Body          WithdrawalRequest
}

// WithdrawalResponse reports the recorded payout.
type WithdrawalResponse struct {
	Transaction TransactionResponse `json:"transaction" doc:"The payout ledger entry"`
	AdminFee    string              `json:"admin_fee" doc:"Platform fee withheld"`
	NetAmount   string              `json:"net_amount" doc:"Amount the author receives"`
}

// WithdrawalOutput wraps the withdrawal response for Huma.
type WithdrawalOutput struct {
	Body WithdrawalResponse
}

// === Handlers ===

func (s *Server) handleGetBalance(ctx context.Context, input *GetBalanceInput) (*BalanceOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	available, err := s.services.Withdrawal.AvailableBalance(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &BalanceOutput{Body: BalanceResponse{Available: available.StringFixed(2)}}, nil
}

func (s *Server) handleListTransactions(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	filter := domain.TransactionFilter{
		Kind:   domain.TransactionKind(input.Kind),
		Status: domain.TransactionStatus(input.Status),
		BookID: input.BookID,
	}
	if input.Role == "buyer" {
		filter.BuyerID = user.ID
	} else {
		filter.AuthorID = user.ID
	}

	txns, err := s.services.Withdrawal.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		resp[i] = toTransactionResponse(t)
	}

	return &ListTransactionsOutput{Body: ListTransactionsResponse{Transactions: resp}}, nil
}

func (s *Server) handleRequestWithdrawal(ctx context.Context, input *WithdrawalInput) (*WithdrawalOutput, error) {
	user, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.allowLedgerWrite(user.ID); err != nil {
		return nil, err
	}

	amount, err := parseMoney(input.Body.Amount, "amount")
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, domainerrors.Validation("amount is required")
	}

	result, err := s.services.Withdrawal.RequestWithdrawal(ctx, user.ID, amount)
	if err != nil {
		return nil, err
	}

	return &WithdrawalOutput{
		Body: WithdrawalResponse{
			Transaction: toTransactionResponse(result.Transaction),
			AdminFee:    result.AdminFee.StringFixed(2),
			NetAmount:   result.NetAmount.StringFixed(2),
		},
	}, nil
}
