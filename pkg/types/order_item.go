package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is the denormalized line snapshot frozen onto an order at
// checkout time. It never changes after the order is persisted.
type OrderItem struct {
	ProductID        uuid.UUID           `json:"product_id"`
	Name             string              `json:"name"`
	Color            string              `json:"color,omitempty"`
	Size             string              `json:"size,omitempty"`
	UnitPrice        decimal.NullDecimal `json:"price"`
	Quantity         int                 `json:"quantity"`
	ShippingCost     decimal.NullDecimal `json:"shipping_cost"`
	DeliveryLocation string              `json:"delivery_location,omitempty"`
	Currency         string              `json:"currency"`
}

// OrderItems stores the snapshot list inside a JSONB column.
type OrderItems []OrderItem

// Value serializes the snapshot to JSON.
func (o OrderItems) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

// Scan decodes JSONB into the snapshot.
func (o *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, o)
}
