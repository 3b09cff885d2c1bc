package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/folioapp/folio-server/internal/errors"
)

// fixedNow pins the clock to 2025-06-15 so expiry cases never rot.
func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func testCard() Card {
	return Card{
		Number:     "4242424242424242",
		Expiry:     "12/2033",
		CVC:        "123",
		HolderName: "Ada Author",
	}
}

func TestValidate_AcceptsWellFormedCard(t *testing.T) {
	v := NewValidatorAt(fixedNow)
	assert.NoError(t, v.Validate(testCard()))
}

func TestValidate_MissingFields(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	cases := []struct {
		name   string
		mutate func(*Card)
	}{
		{"no number", func(c *Card) { c.Number = "" }},
		{"no expiry", func(c *Card) { c.Expiry = "" }},
		{"no cvc", func(c *Card) { c.CVC = "" }},
		{"no holder", func(c *Card) { c.HolderName = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			card := testCard()
			tc.mutate(&card)
			err := v.Validate(card)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrCardDeclined), "got %v", err)
		})
	}
}

func TestValidate_Luhn(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	valid := []string{
		"4242424242424242",
		"4111111111111111",
		"5555555555554444",
	}
	for _, number := range valid {
		card := testCard()
		card.Number = number
		assert.NoError(t, v.Validate(card), "number %s", number)
	}

	invalid := []string{
		"4242424242424241", // checksum off by one
		"1234567890123456",
		"4242-4242-4242-4242", // separators are not stripped
		"abcd",
	}
	for _, number := range invalid {
		card := testCard()
		card.Number = number
		err := v.Validate(card)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrCardDeclined), "number %s: got %v", number, err)
	}
}

func TestValidate_Expiry(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	cases := []struct {
		name   string
		expiry string
		ok     bool
	}{
		{"future two-digit year", "12/33", true},
		{"future four-digit year", "12/2033", true},
		{"long expired", "01/24", false},
		{"current month still valid", "06/25", true},
		{"previous month expired", "05/25", false},
		{"bad format", "122033", false},
		{"month zero", "00/33", false},
		{"month thirteen", "13/33", false},
		{"three-digit year", "12/203", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			card := testCard()
			card.Expiry = tc.expiry
			err := v.Validate(card)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, domainerrors.Is(err, domainerrors.ErrCardDeclined), "got %v", err)
			}
		})
	}
}

func TestValidate_CVC(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	for _, cvc := range []string{"123", "1234"} {
		card := testCard()
		card.CVC = cvc
		assert.NoError(t, v.Validate(card), "cvc %s", cvc)
	}

	for _, cvc := range []string{"12", "12345", "12a", "   "} {
		card := testCard()
		card.CVC = cvc
		err := v.Validate(card)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrCardDeclined), "cvc %q: got %v", cvc, err)
	}
}

func TestValidate_DeclineReasonNamesField(t *testing.T) {
	v := NewValidatorAt(fixedNow)

	card := testCard()
	card.Expiry = "01/24"
	err := v.Validate(card)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
