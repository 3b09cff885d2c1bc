// Package payment provides structural validation of payment instruments.
//
// This is NOT a payment gateway. Validation is a pure, offline gate: a Luhn
// checksum, an expiry window, and a CVC shape check. No network is contacted
// and no real funds move anywhere in this system.
package payment

import (
	"strconv"
	"strings"
	"time"

	domainerrors "github.com/folioapp/folio-server/internal/errors"
)

// Card is a payment instrument as submitted by a buyer.
type Card struct {
	Number     string `json:"number"`
	Expiry     string `json:"expiry"` // MM/YY or MM/YYYY
	CVC        string `json:"cvc"`
	HolderName string `json:"holder_name"`
}

// Validator performs structural card validation against an injectable clock.
type Validator struct {
	now func() time.Time
}

// NewValidator creates a validator using the wall clock.
func NewValidator() *Validator {
	return &Validator{now: time.Now}
}

// NewValidatorAt creates a validator with a fixed clock, for tests.
func NewValidatorAt(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Validate checks the card's structure and returns a CardDeclined domain
// error naming the first failing field, or nil if the card is acceptable.
func (v *Validator) Validate(card Card) error {
	if card.Number == "" || card.Expiry == "" || card.CVC == "" || card.HolderName == "" {
		return domainerrors.CardDeclined("missing card fields")
	}
	if !luhnValid(card.Number) {
		return domainerrors.CardDeclined("invalid card number")
	}
	if err := v.checkExpiry(card.Expiry); err != nil {
		return err
	}
	if !cvcValid(card.CVC) {
		return domainerrors.CardDeclined("invalid cvc")
	}
	return nil
}

// luhnValid runs the mod-10 double-every-second-digit checksum over the
// number. Any non-digit character invalidates the input.
func luhnValid(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// checkExpiry parses MM/YY or MM/YYYY and rejects cards whose expiry month
// has fully elapsed. A card is valid through the last instant of its month.
func (v *Validator) checkExpiry(expiry string) error {
	parts := strings.Split(expiry, "/")
	if len(parts) != 2 {
		return domainerrors.CardDeclined("invalid expiry format")
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return domainerrors.CardDeclined("invalid expiry month")
	}

	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return domainerrors.CardDeclined("invalid expiry year")
	}
	switch len(parts[1]) {
	case 2:
		year += 2000
	case 4:
		// Already a full year.
	default:
		return domainerrors.CardDeclined("invalid expiry year")
	}

	// First instant of the month after expiry.
	cutoff := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	if !v.now().UTC().Before(cutoff) {
		return domainerrors.CardDeclined("card expired")
	}
	return nil
}

// cvcValid requires exactly 3 or 4 ASCII digits.
func cvcValid(cvc string) bool {
	if len(cvc) != 3 && len(cvc) != 4 {
		return false
	}
	for i := 0; i < len(cvc); i++ {
		if cvc[i] < '0' || cvc[i] > '9' {
			return false
		}
	}
	return true
}
