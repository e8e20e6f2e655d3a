package enums

import "fmt"

// TransactionMode is how a buyer acquires a listing: outright purchase,
// a time-boxed rental, or a book-for-book exchange.
type TransactionMode string

const (
	TransactionModePurchase TransactionMode = "purchase"
	TransactionModeRent     TransactionMode = "rent"
	TransactionModeExchange TransactionMode = "exchange"
)

var validTransactionModes = []TransactionMode{
	TransactionModePurchase,
	TransactionModeRent,
	TransactionModeExchange,
}

// String implements fmt.Stringer.
func (m TransactionMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known TransactionMode.
func (m TransactionMode) IsValid() bool {
	for _, candidate := range validTransactionModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseTransactionMode converts raw input into a TransactionMode.
func ParseTransactionMode(value string) (TransactionMode, error) {
	for _, candidate := range validTransactionModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction mode %q", value)
}
