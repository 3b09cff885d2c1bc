package providers

import (
	"github.com/samber/do/v2"

	"github.com/folioapp/folio-server/internal/catalog"
	"github.com/folioapp/folio-server/internal/ledger"
	"github.com/folioapp/folio-server/internal/library"
	"github.com/folioapp/folio-server/internal/logger"
	"github.com/folioapp/folio-server/internal/payment"
)

// ProvideCatalogService provides the book catalog service.
func ProvideCatalogService(i do.Injector) (*catalog.Service, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return catalog.NewService(storeHandle.Store, log.Logger), nil
}

// ProvideLibraryService provides the ownership grant service.
func ProvideLibraryService(i do.Injector) (*library.Service, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return library.NewService(storeHandle.Store, log.Logger), nil
}

// ProvideFeeResolver provides the platform fee resolver.
func ProvideFeeResolver(i do.Injector) (*ledger.FeeResolver, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return ledger.NewFeeResolver(storeHandle.Store, log.Logger), nil
}

// ProvideCardValidator provides the payment card validator.
func ProvideCardValidator(i do.Injector) (*payment.Validator, error) {
	return payment.NewValidator(), nil
}

// ProvidePurchaseService provides the purchase settlement service.
func ProvidePurchaseService(i do.Injector) (*ledger.PurchaseService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	libraryService := do.MustInvoke[*library.Service](i)
	fees := do.MustInvoke[*ledger.FeeResolver](i)
	cards := do.MustInvoke[*payment.Validator](i)
	dispatcherHandle := do.MustInvoke[*DispatcherHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return ledger.NewPurchaseService(storeHandle.Store, libraryService, fees, cards, dispatcherHandle.Dispatcher, log.Logger), nil
}

// ProvideWithdrawalService provides the withdrawal service.
func ProvideWithdrawalService(i do.Injector) (*ledger.WithdrawalService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	fees := do.MustInvoke[*ledger.FeeResolver](i)
	dispatcherHandle := do.MustInvoke[*DispatcherHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return ledger.NewWithdrawalService(storeHandle.Store, fees, dispatcherHandle.Dispatcher, log.Logger), nil
}
