package enums

import "fmt"

// CommissionType tags which attribution produced a commission row.
type CommissionType string

const (
	CommissionTypeReseller  CommissionType = "reseller"
	CommissionTypeAffiliate CommissionType = "affiliate"
)

var validCommissionTypes = []CommissionType{
	CommissionTypeReseller,
	CommissionTypeAffiliate,
}

// IsValid reports whether the value is a known CommissionType.
func (t CommissionType) IsValid() bool {
	for _, candidate := range validCommissionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCommissionType converts raw input into a CommissionType.
func ParseCommissionType(value string) (CommissionType, error) {
	for _, candidate := range validCommissionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission type %q", value)
}
