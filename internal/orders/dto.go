package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marsos-sa/marketplace-backend/pkg/enums"
)

// Filters describe the inputs supported by the buyer orders list.
type Filters struct {
	Status        *enums.OrderStatus
	PaymentMethod *enums.PaymentMethod
	DateFrom      *time.Time
	DateTo        *time.Time
}

// Summary exposes the aggregated fields returned in the orders list.
type Summary struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   int64               `json:"orderNumber"`
	CreatedAt     time.Time           `json:"createdAt"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Status        enums.OrderStatus   `json:"status"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Currency      enums.Currency      `json:"currency"`
	TotalItems    int                 `json:"totalItems"`
	BillNumber    *string             `json:"billNumber,omitempty"`
	ExpiresAt     *time.Time          `json:"expiresAt,omitempty"`
}

// List wraps the paginated orders plus the next page cursor.
type List struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// SadadDetail is the invoice confirmation view shown after a SADAD checkout.
// PaymentDeadline is the displayed pay-by date; the invoice itself stays
// payable until ExpiresAt.
type SadadDetail struct {
	OrderID         uuid.UUID         `json:"orderId"`
	OrderNumber     int64             `json:"orderNumber"`
	Status          enums.OrderStatus `json:"status"`
	BillNumber      string            `json:"billNumber"`
	SadadNumber     string            `json:"sadadNumber"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
	Currency        enums.Currency    `json:"currency"`
	PaymentDeadline time.Time         `json:"paymentDeadline"`
	ExpiresAt       *time.Time        `json:"expiresAt,omitempty"`
}
