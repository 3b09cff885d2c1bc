package api

import (
	"github.com/folioapp/folio-server/internal/auth"
	"github.com/folioapp/folio-server/internal/catalog"
	"github.com/folioapp/folio-server/internal/ledger"
	"github.com/folioapp/folio-server/internal/library"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth       *auth.Service
	Catalog    *catalog.Service
	Library    *library.Service
	Purchase   *ledger.PurchaseService
	Withdrawal *ledger.WithdrawalService
	Fees       *ledger.FeeResolver
	Reconciler *ledger.Reconciler
}
