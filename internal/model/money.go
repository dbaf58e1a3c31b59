package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

var amountCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseAmount converts an upstream amount string into an exact decimal.
// Currency symbols and thousands separators are stripped. Unparsable or
// empty input yields zero; malformed amounts must never abort
// normalization of a whole page.
func ParseAmount(s string) decimal.Decimal {
	s = amountCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
