// Package money converts between decimal amount strings and integer minor units.
// All ledger arithmetic happens on int64 minor units.
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for strings that are not an integer or a two-decimal number.
var ErrInvalidAmount = errors.New("invalid amount")

const minorUnitExponent = 2

var amountPattern = regexp.MustCompile(`^-?\d+(\.\d{1,2})?$`)

var maxMinor = decimal.NewFromInt(math.MaxInt64)
var minMinor = decimal.NewFromInt(math.MinInt64)

// ParseToMinorUnits parses "10", "10.5" or "-3.07" into 1000, 1050 and -307.
// Empty input is zero. More than two fractional digits is rejected rather than rounded.
func ParseToMinorUnits(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	if !amountPattern.MatchString(trimmed) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, value, err)
	}
	minor := d.Shift(minorUnitExponent)
	if minor.GreaterThan(maxMinor) || minor.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %q overflows minor units", ErrInvalidAmount, value)
	}
	return minor.IntPart(), nil
}

// FormatMinorUnits renders minor units as a fixed two-decimal string, e.g. 5000000 -> "50000.00".
func FormatMinorUnits(minor int64) string {
	return decimal.New(minor, -minorUnitExponent).StringFixed(minorUnitExponent)
}

// Display renders an amount for humans, e.g. "$50,000.00". Unknown currency codes fall back
// to the plain decimal form followed by the code.
func Display(minor int64, currencyCode string) string {
	code := strings.ToUpper(currencyCode)
	if gomoney.GetCurrency(code) == nil {
		return strings.TrimSpace(FormatMinorUnits(minor) + " " + code)
	}
	return gomoney.New(minor, code).Display()
}
