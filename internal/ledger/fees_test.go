package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio-server/internal/domain"
	domainerrors "github.com/folioapp/folio-server/internal/errors"
)

// === Fee Resolver Tests ===

func TestFeeResolver_Defaults(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	sale, usedDefault := env.fees.Resolve(ctx, domain.SettingSaleFeePercent)
	assert.True(t, usedDefault)
	assert.True(t, sale.Equal(domain.DefaultSaleFeePercent), "got %s", sale)

	payout, usedDefault := env.fees.Resolve(ctx, domain.SettingPayoutFeePercent)
	assert.True(t, usedDefault)
	assert.True(t, payout.Equal(domain.DefaultPayoutFeePercent), "got %s", payout)
}

func TestFeeResolver_PersistedOverride(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	require.NoError(t, env.fees.SetPercent(ctx, domain.SettingSaleFeePercent, decimal.RequireFromString("12.5")))

	percent, usedDefault := env.fees.Resolve(ctx, domain.SettingSaleFeePercent)
	assert.False(t, usedDefault)
	assert.True(t, percent.Equal(decimal.RequireFromString("12.5")), "got %s", percent)

	// The other key keeps its default.
	payout, usedDefault := env.fees.Resolve(ctx, domain.SettingPayoutFeePercent)
	assert.True(t, usedDefault)
	assert.True(t, payout.Equal(domain.DefaultPayoutFeePercent))
}

func TestFeeResolver_MalformedSettingFallsBack(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	require.NoError(t, env.store.SetSetting(ctx, domain.SettingSaleFeePercent, "not-a-number"))

	percent, usedDefault := env.fees.Resolve(ctx, domain.SettingSaleFeePercent)
	assert.True(t, usedDefault)
	assert.True(t, percent.Equal(domain.DefaultSaleFeePercent))

	// Out-of-range values are treated the same as garbage.
	require.NoError(t, env.store.SetSetting(ctx, domain.SettingSaleFeePercent, "150"))
	percent, usedDefault = env.fees.Resolve(ctx, domain.SettingSaleFeePercent)
	assert.True(t, usedDefault)
	assert.True(t, percent.Equal(domain.DefaultSaleFeePercent))
}

func TestFeeResolver_SetPercentValidation(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	err := env.fees.SetPercent(ctx, domain.SettingSaleFeePercent, decimal.NewFromInt(101))
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)

	err = env.fees.SetPercent(ctx, domain.SettingSaleFeePercent, decimal.NewFromInt(-1))
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)

	err = env.fees.SetPercent(ctx, "unknown.key", decimal.NewFromInt(10))
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)

	// Boundary values are legal.
	assert.NoError(t, env.fees.SetPercent(ctx, domain.SettingSaleFeePercent, decimal.Zero))
	assert.NoError(t, env.fees.SetPercent(ctx, domain.SettingSaleFeePercent, decimal.NewFromInt(100)))
}

func TestFeeResolver_Policy(t *testing.T) {
	env := setupLedgerTest(t)
	ctx := context.Background()

	require.NoError(t, env.fees.SetPercent(ctx, domain.SettingPayoutFeePercent, decimal.NewFromInt(5)))

	policy := env.fees.Policy(ctx)
	assert.True(t, policy.SaleFeePercent.Equal(domain.DefaultSaleFeePercent))
	assert.True(t, policy.PayoutFeePercent.Equal(decimal.NewFromInt(5)))
}
