package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem persists one product line inside a CartRecord. UnitPrice and
// ShippingCost are nullable: a null price marks a line the pricing engine
// could not resolve, which blocks checkout but never breaks cart display.
type CartItem struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID           uuid.UUID           `gorm:"column:cart_id;type:uuid;not null"`
	ProductID        uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	SupplierID       uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null"`
	Name             string              `gorm:"column:name;not null"`
	Color            string              `gorm:"column:color;not null;default:''"`
	Size             string              `gorm:"column:size;not null;default:''"`
	DeliveryLocation string              `gorm:"column:delivery_location;not null;default:''"`
	Quantity         int                 `gorm:"column:quantity;not null;default:1"`
	UnitPrice        decimal.NullDecimal `gorm:"column:unit_price;type:numeric(12,2)"`
	ShippingCost     decimal.NullDecimal `gorm:"column:shipping_cost;type:numeric(12,2)"`
	Currency         string              `gorm:"column:currency;not null;default:'SAR'"`
	MainImageURL     *string             `gorm:"column:main_image_url"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// SameVariant reports whether another line refers to the same purchasable
// variant. Duplicate detection at add-to-cart keys on this identity.
func (c CartItem) SameVariant(other CartItem) bool {
	return c.ProductID == other.ProductID &&
		c.Color == other.Color &&
		c.Size == other.Size &&
		c.DeliveryLocation == other.DeliveryLocation
}
