package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/types"
)

// Order is the per-checkout payment record. SADAD checkouts produce one order
// per supplier; card checkouts cover the whole cart, so SupplierID is null.
// Items is a denormalized snapshot frozen at checkout time.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64               `gorm:"column:order_number;autoIncrement;uniqueIndex"`
	BuyerID           uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	SupplierID        *uuid.UUID          `gorm:"column:supplier_id;type:uuid"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`
	Status            enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'initiated'"`
	Items             types.OrderItems    `gorm:"column:items;type:jsonb;serializer:json"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingTotal     decimal.Decimal     `gorm:"column:shipping_total;type:numeric(12,2);not null"`
	TaxTotal          decimal.Decimal     `gorm:"column:tax_total;type:numeric(12,2);not null"`
	Discount          decimal.Decimal     `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	TotalAmount       decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CouponCode        *string             `gorm:"column:coupon_code"`
	Currency          enums.Currency      `gorm:"column:currency;type:text;not null;default:'SAR'"`
	BillNumber        *string             `gorm:"column:bill_number;uniqueIndex"`
	SadadNumber       *string             `gorm:"column:sadad_number"`
	CheckoutSessionID *string             `gorm:"column:checkout_session_id"`
	ResultCode        *string             `gorm:"column:result_code"`
	DeliveryAddress   *types.Address      `gorm:"column:delivery_address;type:jsonb"`
	ExpiresAt         *time.Time          `gorm:"column:expires_at"`
	PaidAt            *time.Time          `gorm:"column:paid_at"`
	ApprovedAt        *time.Time          `gorm:"column:approved_at"`
	FailureReason     *string             `gorm:"column:failure_reason"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
