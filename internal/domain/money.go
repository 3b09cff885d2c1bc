package domain

import "github.com/shopspring/decimal"

// Money amounts are decimals rounded to two places (minor currency units).
// Fee splits are computed here so every caller uses the same rounding policy.

// MoneyPlaces is the number of decimal places carried by monetary values.
const MoneyPlaces = 2

// OneCent is the smallest representable monetary difference, used as the
// tolerance when reconciling a fee split against its total.
var OneCent = decimal.New(1, -MoneyPlaces)

// SplitFee divides amount into a platform fee and a remainder using the given
// percentage. The fee is rounded half-away-from-zero to two places; the
// remainder is computed by subtraction so that fee + remainder always equals
// amount exactly, regardless of rounding direction.
func SplitFee(amount decimal.Decimal, percent decimal.Decimal) (fee, remainder decimal.Decimal) {
	fee = amount.Mul(percent).Div(decimal.NewFromInt(100)).Round(MoneyPlaces)
	remainder = amount.Sub(fee)
	return fee, remainder
}

// ReconcilesWith reports whether fee + remainder matches total to within one
// minor currency unit of rounding.
func ReconcilesWith(total, fee, remainder decimal.Decimal) bool {
	diff := fee.Add(remainder).Sub(total).Abs()
	return diff.LessThanOrEqual(OneCent)
}
