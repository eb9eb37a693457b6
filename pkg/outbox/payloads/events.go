package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marsos-sa/marketplace-backend/pkg/enums"
)

// OrderCreatedEvent signals a new order awaiting payment.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   int64               `json:"orderNumber"`
	BuyerID       uuid.UUID           `json:"buyerId"`
	SupplierID    *uuid.UUID          `json:"supplierId,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Currency      enums.Currency      `json:"currency"`
	BillNumber    *string             `json:"billNumber,omitempty"`
	ExpiresAt     *time.Time          `json:"expiresAt,omitempty"`
}

// OrderPaidEvent is emitted when a card payment settles.
type OrderPaidEvent struct {
	OrderID     uuid.UUID       `json:"orderId"`
	BuyerID     uuid.UUID       `json:"buyerId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ResultCode  string          `json:"resultCode"`
	PaidAt      time.Time       `json:"paidAt"`
}

// OrderFailedEvent is emitted when the gateway declines a payment.
type OrderFailedEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	BuyerID    uuid.UUID `json:"buyerId"`
	ResultCode string    `json:"resultCode"`
	Reason     string    `json:"reason,omitempty"`
}

// OrderExpiredEvent is emitted when an unpaid invoice passes its deadline.
type OrderExpiredEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	BuyerID    uuid.UUID `json:"buyerId"`
	BillNumber string    `json:"billNumber,omitempty"`
	ExpiredAt  time.Time `json:"expiredAt"`
}

// OrderApprovedEvent is emitted when reconciliation confirms a SADAD payment.
type OrderApprovedEvent struct {
	OrderID    uuid.UUID `json:"orderId"`
	BuyerID    uuid.UUID `json:"buyerId"`
	BillNumber string    `json:"billNumber"`
	ApprovedAt time.Time `json:"approvedAt"`
}

// CartConvertedEvent records that a checkout consumed a cart.
type CartConvertedEvent struct {
	CartID   uuid.UUID   `json:"cartId"`
	BuyerID  uuid.UUID   `json:"buyerId"`
	OrderIDs []uuid.UUID `json:"orderIds"`
}

// NotificationRequestedEvent tells the notifications worker to alert a user.
type NotificationRequestedEvent struct {
	NotificationID uuid.UUID                 `json:"notificationId"`
	UserID         uuid.UUID                 `json:"userId"`
	OrderID        *uuid.UUID                `json:"orderId,omitempty"`
	Kind           enums.NotificationKind    `json:"kind"`
	Channel        enums.NotificationChannel `json:"channel"`
}
