package enums

import "fmt"

// TransactionType distinguishes in-store POS carts from online carts.
type TransactionType string

const (
	TransactionTypePOS    TransactionType = "pos"
	TransactionTypeOnline TransactionType = "online"
)

var validTransactionTypes = []TransactionType{
	TransactionTypePOS,
	TransactionTypeOnline,
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
