package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the delivery address snapshot attached to orders. Stored as
// JSONB; Country defaults to Saudi Arabia when omitted.
type Address struct {
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	Region     string  `json:"region,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
	Country    string  `json:"country"`
	Phone      string  `json:"phone,omitempty"`
}

// Validate enforces the minimum fields a courier needs.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	return nil
}

// Value serializes the address to JSON.
func (a *Address) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	normalized := *a
	if strings.TrimSpace(normalized.Country) == "" {
		normalized.Country = "SA"
	}
	return json.Marshal(normalized)
}

// Scan decodes JSONB into the address.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return err
	}
	if strings.TrimSpace(a.Country) == "" {
		a.Country = "SA"
	}
	return nil
}
