package domain

import "github.com/shopspring/decimal"

// Platform setting keys for fee percentages.
const (
	SettingSaleFeePercent   = "sale_fee_percent"
	SettingPayoutFeePercent = "payout_fee_percent"
)

// Hardcoded fallback fee percentages, applied when no setting row exists.
var (
	DefaultSaleFeePercent   = decimal.NewFromInt(20)
	DefaultPayoutFeePercent = decimal.NewFromInt(2)
)

// FeePolicy is the resolved platform fee configuration.
type FeePolicy struct {
	SaleFeePercent   decimal.Decimal `json:"sale_fee_percent"`
	PayoutFeePercent decimal.Decimal `json:"payout_fee_percent"`
}

// ValidFeePercent reports whether p is a usable fee percentage.
func ValidFeePercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(decimal.NewFromInt(100))
}
