package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Stored amounts are numeric(18,2).
var maxAmount = decimal.New(1, 16)

const maxAmountLen = 40

var plainDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// ParseAmount turns a provider amount string into a non-negative value with
// two decimal places, rounding half away from zero.
//
// A comma is a thousands separator when the string also has a dot, and a
// decimal mark otherwise. Only plain decimal notation is read, no exponents.
// Unparseable input, or a value too large to store, yields zero and
// ErrInvalidAmount; callers decide whether that matters.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, raw)

	if strings.Contains(cleaned, ",") {
		if strings.Contains(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
	}

	if len(cleaned) > maxAmountLen || !plainDecimal.MatchString(cleaned) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	parsed, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	amount := parsed.Abs().Round(2)
	if amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, raw)
	}
	return amount, nil
}
