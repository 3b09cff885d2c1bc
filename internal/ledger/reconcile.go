package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/folioapp/folio-server/internal/library"
	"github.com/folioapp/folio-server/internal/store"
)

// Reconciler repairs post-commit failures: a COMPLETED sale whose ownership
// grant was never written (crash or storage error between the ledger append
// and the grant). The ledger row is authoritative, so repair means creating
// the missing grant, never touching the money.
type Reconciler struct {
	store   store.Store
	library *library.Service
	logger  *slog.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(st store.Store, lib *library.Service, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: st, library: lib, logger: logger}
}

// Run performs one reconciliation pass and returns the number of grants
// repaired. Individual repair failures are logged and skipped; the next
// pass retries them.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	sales, err := r.store.ListSalesMissingGrants(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, txn := range sales {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		result, err := r.library.Grant(ctx, txn.BuyerID, txn.BookID, txn.ID)
		if err != nil {
			r.logger.Error("grant repair failed",
				"transaction_id", txn.ID,
				"buyer_id", txn.BuyerID,
				"book_id", txn.BookID,
				"error", err,
			)
			continue
		}
		if !result.Already {
			repaired++
			r.logger.Warn("repaired sale missing ownership grant",
				"transaction_id", txn.ID,
				"buyer_id", txn.BuyerID,
				"book_id", txn.BookID,
			)
		}
	}
	return repaired, nil
}

// Start runs reconciliation passes on the given interval until ctx is
// cancelled. Intended to be launched as a background goroutine from the
// process entry point.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("reconciliation pass failed", "error", err)
			}
		}
	}
}
