package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amounts move through the system as integer pesewas (GHS minor unit).
// Decimal cedi values only appear at the API edge and in gateway payloads.

var pesewasPerCedi = decimal.NewFromInt(100)

// FromCedis converts a decimal cedi amount into pesewas, rejecting values
// with sub-pesewa precision.
func FromCedis(cedis decimal.Decimal) (int, error) {
	pesewas := cedis.Mul(pesewasPerCedi)
	if !pesewas.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-pesewa precision", cedis)
	}
	return int(pesewas.IntPart()), nil
}

// ToCedis converts pesewas into an exact decimal cedi amount.
func ToCedis(pesewas int) decimal.Decimal {
	return decimal.NewFromInt(int64(pesewas)).Div(pesewasPerCedi)
}

// ParseCedis parses a decimal string like "45.50" into pesewas.
func ParseCedis(value string) (int, error) {
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", value, err)
	}
	return FromCedis(dec)
}

// FormatGHS renders pesewas as a display string, e.g. "GHS 45.50".
func FormatGHS(pesewas int) string {
	return "GHS " + ToCedis(pesewas).StringFixed(2)
}
