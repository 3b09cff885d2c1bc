// Package di provides dependency injection configuration for the Folio server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/auth"
	"github.com/folioapp/folio-server/internal/catalog"
	"github.com/folioapp/folio-server/internal/config"
	"github.com/folioapp/folio-server/internal/di/providers"
	"github.com/folioapp/folio-server/internal/ledger"
	"github.com/folioapp/folio-server/internal/library"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/payment"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideAuthService)

	// Background workers
	do.Provide(injector, providers.ProvideDispatcher)
	do.Provide(injector, providers.ProvideReconciler)

	// Business services
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideFeeResolver)
	do.Provide(injector, providers.ProvideCardValidator)
	do.Provide(injector, providers.ProvidePurchaseService)
	do.Provide(injector, providers.ProvideWithdrawalService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.DispatcherHandle](injector); err != nil {
		return err
	}

	// Business services
	if _, err := do.Invoke[*auth.Service](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*catalog.Service](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*library.Service](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*ledger.FeeResolver](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*payment.Validator](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*ledger.PurchaseService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*ledger.WithdrawalService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.ReconcilerHandle](injector); err != nil {
		return err
	}

	// Server last, once everything it depends on is up
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
