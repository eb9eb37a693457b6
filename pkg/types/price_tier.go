package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TierLocation prices shipping for a single delivery location inside a tier.
type TierLocation struct {
	Location string          `json:"location"`
	Price    decimal.Decimal `json:"locationPrice"`
}

// FlexibleMax is a tier upper bound that suppliers enter either as a number
// or as the literal string "unlimited". Absent or unlimited means unbounded.
type FlexibleMax struct {
	Value     int
	Unbounded bool
}

func (m FlexibleMax) MarshalJSON() ([]byte, error) {
	if m.Unbounded {
		return json.Marshal("unlimited")
	}
	return json.Marshal(m.Value)
}

func (m *FlexibleMax) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*m = FlexibleMax{Unbounded: true}
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.EqualFold(strings.TrimSpace(s), "unlimited") {
			*m = FlexibleMax{Unbounded: true}
			return nil
		}
		return fmt.Errorf("price tier: invalid max quantity %q", s)
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("price tier: invalid max quantity: %w", err)
	}
	*m = FlexibleMax{Value: v}
	return nil
}

// Contains reports whether qty falls at or under the bound.
func (m FlexibleMax) Contains(qty int) bool {
	return m.Unbounded || qty <= m.Value
}

// PriceTier is one quantity bracket of a product's tiered price list.
type PriceTier struct {
	MinQty    int             `json:"minQty"`
	MaxQty    FlexibleMax     `json:"maxQty"`
	Price     decimal.Decimal `json:"price"`
	Locations []TierLocation  `json:"locations,omitempty"`
}

// Matches reports whether qty falls inside the tier bracket.
func (t PriceTier) Matches(qty int) bool {
	return qty >= t.MinQty && t.MaxQty.Contains(qty)
}

// ShippingFor returns the tier's shipping price for the given location.
// Matching is case-insensitive and whitespace-trimmed; no match means zero.
func (t PriceTier) ShippingFor(location string) decimal.Decimal {
	want := strings.ToLower(strings.TrimSpace(location))
	if want == "" {
		return decimal.Zero
	}
	for _, loc := range t.Locations {
		if strings.ToLower(strings.TrimSpace(loc.Location)) == want {
			return loc.Price
		}
	}
	return decimal.Zero
}

// PriceTiers stores the full tier list inside a JSONB column.
type PriceTiers []PriceTier

// Value serializes the tier list to JSON.
func (p PriceTiers) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// Scan decodes JSONB into the tier list.
func (p *PriceTiers) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, p)
}
