package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSplitFee(t *testing.T) {
	cases := []struct {
		name      string
		amount    string
		percent   string
		fee       string
		remainder string
	}{
		{"even split", "10.00", "20", "2.00", "8.00"},
		{"odd price", "9.99", "20", "2.00", "7.99"},
		{"rounds half up", "9.99", "10", "1.00", "8.99"},
		{"half cent rounds up", "4.50", "3", "0.14", "4.36"},
		{"rounds down", "4.44", "3", "0.13", "4.31"},
		{"payout fee", "5.00", "2", "0.10", "4.90"},
		{"zero percent", "10.00", "0", "0.00", "10.00"},
		{"full percent", "10.00", "100", "10.00", "0.00"},
		{"tiny amount", "0.01", "20", "0.00", "0.01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount := decimal.RequireFromString(tc.amount)
			percent := decimal.RequireFromString(tc.percent)
			fee, remainder := SplitFee(amount, percent)
			assert.True(t, fee.Equal(decimal.RequireFromString(tc.fee)), "fee: got %s, want %s", fee, tc.fee)
			assert.True(t, remainder.Equal(decimal.RequireFromString(tc.remainder)), "remainder: got %s, want %s", remainder, tc.remainder)

			// The split always adds back up exactly.
			assert.True(t, fee.Add(remainder).Equal(amount))
		})
	}
}

func TestReconcilesWith(t *testing.T) {
	ten := decimal.RequireFromString("10.00")

	assert.True(t, ReconcilesWith(ten, decimal.RequireFromString("2.00"), decimal.RequireFromString("8.00")))

	// One cent of rounding drift is tolerated.
	assert.True(t, ReconcilesWith(ten, decimal.RequireFromString("2.00"), decimal.RequireFromString("8.01")))
	assert.True(t, ReconcilesWith(ten, decimal.RequireFromString("2.00"), decimal.RequireFromString("7.99")))

	// Two cents is not.
	assert.False(t, ReconcilesWith(ten, decimal.RequireFromString("2.00"), decimal.RequireFromString("8.02")))
	assert.False(t, ReconcilesWith(ten, decimal.RequireFromString("5.00"), decimal.RequireFromString("3.00")))
}

func TestTransactionReconciles(t *testing.T) {
	txn := &Transaction{
		Amount:    decimal.RequireFromString("9.99"),
		AdminFee:  decimal.RequireFromString("2.00"),
		AuthorNet: decimal.RequireFromString("7.99"),
	}
	assert.True(t, txn.Reconciles())

	txn.AuthorNet = decimal.RequireFromString("9.99")
	assert.False(t, txn.Reconciles())
}

func TestBookMonetized(t *testing.T) {
	assert.True(t, (&Book{Price: decimal.RequireFromString("0.01")}).Monetized())
	assert.False(t, (&Book{Price: decimal.Zero}).Monetized())
	assert.False(t, (&Book{Price: decimal.RequireFromString("-1")}).Monetized())
}

func TestGrantPurchased(t *testing.T) {
	assert.True(t, (&Grant{TransactionID: "txn-1"}).Purchased())
	assert.False(t, (&Grant{}).Purchased())
}

func TestValidFeePercent(t *testing.T) {
	assert.True(t, ValidFeePercent(decimal.Zero))
	assert.True(t, ValidFeePercent(decimal.NewFromInt(100)))
	assert.True(t, ValidFeePercent(decimal.RequireFromString("12.5")))
	assert.False(t, ValidFeePercent(decimal.NewFromInt(-1)))
	assert.False(t, ValidFeePercent(decimal.RequireFromString("100.01")))
}
