package enums

import "fmt"

// CustomerIDType is the identity document class SADAD invoices require.
type CustomerIDType string

const (
	CustomerIDTypeNational   CustomerIDType = "NAT"
	CustomerIDTypeIqama      CustomerIDType = "IQA"
	CustomerIDTypeCommercial CustomerIDType = "CR"
	CustomerIDTypeGCC        CustomerIDType = "GCC"
)

var validCustomerIDTypes = []CustomerIDType{
	CustomerIDTypeNational,
	CustomerIDTypeIqama,
	CustomerIDTypeCommercial,
	CustomerIDTypeGCC,
}

// String implements fmt.Stringer.
func (c CustomerIDType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomerIDType.
func (c CustomerIDType) IsValid() bool {
	for _, candidate := range validCustomerIDTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomerIDType converts raw input into a CustomerIDType.
func ParseCustomerIDType(value string) (CustomerIDType, error) {
	for _, candidate := range validCustomerIDTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer id type %q", value)
}
