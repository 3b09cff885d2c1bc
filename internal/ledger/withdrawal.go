package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/id"
	"github.com/folioapp/folio-server/internal/store"
)

// WithdrawalService orchestrates author payout requests: fee computation,
// balance check and ledger append. Settlement of the resulting PENDING
// payout is a back-office operation recorded via MarkPaid.
type WithdrawalService struct {
	store    store.Store
	fees     *FeeResolver
	notifier Notifier
	logger   *slog.Logger
}

// NewWithdrawalService creates a new withdrawal orchestrator.
func NewWithdrawalService(st store.Store, fees *FeeResolver, notifier Notifier, logger *slog.Logger) *WithdrawalService {
	return &WithdrawalService{store: st, fees: fees, notifier: notifier, logger: logger}
}

// WithdrawalResult reports the outcome of RequestWithdrawal.
type WithdrawalResult struct {
	Transaction *domain.Transaction `json:"transaction"`
	AdminFee    decimal.Decimal     `json:"admin_fee"`
	NetAmount   decimal.Decimal     `json:"net_amount"`
}

// RequestWithdrawal records a PENDING payout of amount for the author.
//
// The balance check and the ledger append run inside one storage transaction
// (the store re-derives the balance under the same snapshot as the insert),
// so concurrent withdrawals cannot jointly overdraw the account. On
// insufficient funds the available balance travels back to the caller.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, authorID string, amount decimal.Decimal) (*WithdrawalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, domainerrors.Validation("withdrawal amount must be positive")
	}
	if amount.Exponent() < -domain.MoneyPlaces {
		return nil, domainerrors.Validation("withdrawal amount has sub-cent precision")
	}

	percent, usedDefault := s.fees.Resolve(ctx, domain.SettingPayoutFeePercent)
	adminFee, authorNet := domain.SplitFee(amount, percent)

	txnID, err := id.Generate("txn")
	if err != nil {
		return nil, fmt.Errorf("generate transaction ID: %w", err)
	}

	txn := &domain.Transaction{
		ID:            txnID,
		Kind:          domain.TransactionPayout,
		AuthorID:      authorID,
		Amount:        amount,
		AdminFee:      adminFee,
		AuthorNet:     authorNet,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentPending,
		CreatedAt:     time.Now(),
	}

	available, err := s.store.AppendPayout(ctx, txn)
	if domainerrors.Is(err, store.ErrInsufficientBalance) {
		return nil, domainerrors.InsufficientFunds(
			fmt.Sprintf("available balance %s is less than requested %s",
				available.StringFixed(domain.MoneyPlaces), amount.StringFixed(domain.MoneyPlaces)),
			available.StringFixed(domain.MoneyPlaces),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("append payout: %w", err)
	}

	s.logger.Info("withdrawal requested",
		"transaction_id", txnID,
		"author_id", authorID,
		"amount", amount.String(),
		"admin_fee", adminFee.String(),
		"net_amount", authorNet.String(),
		"available_before", available.String(),
		"fee_default", usedDefault,
	)

	s.notifier.Notify(authorID, domain.NotificationWithdrawalPending,
		"Withdrawal requested",
		fmt.Sprintf("Your withdrawal of %s is pending (fee %s, you receive %s)",
			amount.StringFixed(domain.MoneyPlaces), adminFee.StringFixed(domain.MoneyPlaces), authorNet.StringFixed(domain.MoneyPlaces)),
		"/wallet",
	)

	return &WithdrawalResult{Transaction: txn, AdminFee: adminFee, NetAmount: authorNet}, nil
}

// AvailableBalance derives the author's current balance from the ledger.
func (s *WithdrawalService) AvailableBalance(ctx context.Context, authorID string) (decimal.Decimal, error) {
	balance, err := s.store.AuthorBalance(ctx, authorID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("derive balance: %w", err)
	}
	return balance, nil
}

// ListTransactions returns ledger entries visible to the given user: entries
// where they are the author plus sales where they are the buyer.
func (s *WithdrawalService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	return s.store.ListTransactions(ctx, filter)
}

// MarkPaid records external settlement of a pending payout.
func (s *WithdrawalService) MarkPaid(ctx context.Context, transactionID string) error {
	txn, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return err
	}

	if err := s.store.MarkPayoutPaid(ctx, transactionID); err != nil {
		return err
	}

	s.logger.Info("payout settled",
		"transaction_id", transactionID,
		"author_id", txn.AuthorID,
		"amount", txn.Amount.String(),
	)

	s.notifier.Notify(txn.AuthorID, domain.NotificationWithdrawalPaid,
		"Withdrawal paid",
		fmt.Sprintf("Your withdrawal of %s has been paid out", txn.Amount.StringFixed(domain.MoneyPlaces)),
		"/wallet",
	)
	return nil
}
