package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/api"
	"github.com/folioapp/folio-server/internal/auth"
	"github.com/folioapp/folio-server/internal/catalog"
	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/ledger"
	"github.com/folioapp/folio-server/internal/library"
	"github.com/folioapp/folio-server/internal/logger"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*auth.Service](i),
		Catalog:    do.MustInvoke[*catalog.Service](i),
		Library:    do.MustInvoke[*library.Service](i),
		Purchase:   do.MustInvoke[*ledger.PurchaseService](i),
		Withdrawal: do.MustInvoke[*ledger.WithdrawalService](i),
		Fees:       do.MustInvoke[*ledger.FeeResolver](i),
		Reconciler: do.MustInvoke[*ReconcilerHandle](i).Reconciler,
	}

	handler := api.NewServer(storeHandle.Store, services, cfg, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
