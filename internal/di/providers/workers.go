package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/ledger"
	"github.com/folioapp/folio-server/internal/library"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/notify"
)

// DispatcherHandle wraps the notification dispatcher with its context for
// lifecycle management.
type DispatcherHandle struct {
	*notify.Dispatcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *DispatcherHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Dispatcher.Shutdown(ctx)
}

// ProvideDispatcher provides the notification dispatcher.
func ProvideDispatcher(i do.Injector) (*DispatcherHandle, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	dispatcher := notify.NewDispatcher(notify.NewStoreSink(storeHandle.Store), log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Start(ctx)

	log.Info("Notification dispatcher started")

	return &DispatcherHandle{
		Dispatcher: dispatcher,
		cancel:     cancel,
	}, nil
}

// ReconcilerHandle wraps the grant reconciler with its context.
type ReconcilerHandle struct {
	*ledger.Reconciler
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *ReconcilerHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideReconciler provides the grant reconciliation job.
func ProvideReconciler(i do.Injector) (*ReconcilerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	libraryService := do.MustInvoke[*library.Service](i)
	log := do.MustInvoke[*logger.Logger](i)

	reconciler := ledger.NewReconciler(storeHandle.Store, libraryService, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go reconciler.Start(ctx, cfg.Ledger.ReconcileInterval)

	log.Info("Grant reconciler started", "interval", cfg.Ledger.ReconcileInterval)

	return &ReconcilerHandle{
		Reconciler: reconciler,
		cancel:     cancel,
	}, nil
}
