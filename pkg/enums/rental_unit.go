package enums

import "fmt"

// RentalUnit is the granularity rent pricing is quoted in.
type RentalUnit string

const (
	RentalUnitDay   RentalUnit = "day"
	RentalUnitWeek  RentalUnit = "week"
	RentalUnitMonth RentalUnit = "month"
)

var validRentalUnits = []RentalUnit{
	RentalUnitDay,
	RentalUnitWeek,
	RentalUnitMonth,
}

// String implements fmt.Stringer.
func (u RentalUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known RentalUnit.
func (u RentalUnit) IsValid() bool {
	for _, candidate := range validRentalUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseRentalUnit converts raw input into a RentalUnit.
func ParseRentalUnit(value string) (RentalUnit, error) {
	for _, candidate := range validRentalUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental unit %q", value)
}
