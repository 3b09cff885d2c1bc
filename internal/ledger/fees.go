package ledger

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
	"github.com/folioapp/folio-server/internal/store"
)

// FeeResolver reads platform fee percentages with hardcoded fallbacks.
// A missing or unparseable setting is not an error; the default applies and
// the fallback is logged for observability.
type FeeResolver struct {
	store  store.Store
	logger *slog.Logger
}

// NewFeeResolver creates a new fee resolver.
func NewFeeResolver(st store.Store, logger *slog.Logger) *FeeResolver {
	return &FeeResolver{store: st, logger: logger}
}

// Resolve looks up a named fee percentage. usedDefault reports whether the
// hardcoded fallback was applied.
func (r *FeeResolver) Resolve(ctx context.Context, key string) (percent decimal.Decimal, usedDefault bool) {
	def := defaultFor(key)

	value, err := r.store.GetSetting(ctx, key)
	if err != nil {
		if !domainerrors.Is(err, store.ErrNotFound) {
			r.logger.Warn("fee setting lookup failed, using default",
				"key", key, "default", def.String(), "error", err)
		}
		return def, true
	}

	p, err := decimal.NewFromString(value)
	if err != nil || !domain.ValidFeePercent(p) {
		r.logger.Warn("fee setting is malformed, using default",
			"key", key, "value", value, "default", def.String())
		return def, true
	}

	return p, false
}

// Policy resolves the full fee policy in one call.
func (r *FeeResolver) Policy(ctx context.Context) domain.FeePolicy {
	sale, _ := r.Resolve(ctx, domain.SettingSaleFeePercent)
	payout, _ := r.Resolve(ctx, domain.SettingPayoutFeePercent)
	return domain.FeePolicy{SaleFeePercent: sale, PayoutFeePercent: payout}
}

// SetPercent updates a fee percentage setting after range-checking it.
func (r *FeeResolver) SetPercent(ctx context.Context, key string, percent decimal.Decimal) error {
	if key != domain.SettingSaleFeePercent && key != domain.SettingPayoutFeePercent {
		return domainerrors.Validationf("unknown fee setting %q", key)
	}
	if !domain.ValidFeePercent(percent) {
		return domainerrors.Validation("fee percent must be between 0 and 100")
	}
	if err := r.store.SetSetting(ctx, key, percent.String()); err != nil {
		return err
	}
	r.logger.Info("fee setting updated", "key", key, "percent", percent.String())
	return nil
}

func defaultFor(key string) decimal.Decimal {
	if key == domain.SettingPayoutFeePercent {
		return domain.DefaultPayoutFeePercent
	}
	return domain.DefaultSaleFeePercent
}
