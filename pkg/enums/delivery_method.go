package enums

import "fmt"

// DeliveryMethod is how the buyer receives the books.
type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "pickup"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodPickup,
	DeliveryMethodDelivery,
}

// String implements fmt.Stringer.
func (m DeliveryMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (m DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
