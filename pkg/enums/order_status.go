package enums

import "fmt"

// OrderStatus tracks the payment lifecycle of a marketplace order.
type OrderStatus string

const (
	OrderStatusInitiated       OrderStatus = "initiated"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusReconciling     OrderStatus = "reconciling"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusApproved        OrderStatus = "approved"
	OrderStatusFailed          OrderStatus = "failed"
	OrderStatusExpired         OrderStatus = "expired"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusInitiated,
	OrderStatusAwaitingPayment,
	OrderStatusPending,
	OrderStatusReconciling,
	OrderStatusPaid,
	OrderStatusApproved,
	OrderStatusFailed,
	OrderStatusExpired,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (o OrderStatus) IsTerminal() bool {
	switch o {
	case OrderStatusFailed, OrderStatusExpired, OrderStatusCancelled, OrderStatusApproved:
		return true
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
