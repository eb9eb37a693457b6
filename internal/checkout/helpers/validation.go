package helpers

import (
	"fmt"

	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
)

// ValidateCheckoutItems rejects carts that cannot be charged: empty carts,
// non-positive quantities, and lines whose price or shipping never resolved.
func ValidateCheckoutItems(items []models.CartItem) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid item quantity").
				WithDetails(map[string]any{"productId": item.ProductID})
		}
		if !item.UnitPrice.Valid || !item.ShippingCost.Valid {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price unavailable, remove the item and re-add it").
				WithDetails(map[string]any{"productId": item.ProductID})
		}
	}
	return nil
}

// ValidatePaymentMethod restricts checkout to the methods the gateways
// currently support. Wallet and BNPL are accepted at the API surface but not
// yet chargeable.
func ValidatePaymentMethod(method enums.PaymentMethod) error {
	switch method {
	case enums.PaymentMethodCard, enums.PaymentMethodSadad:
		return nil
	case enums.PaymentMethodWallet, enums.PaymentMethodBNPL:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("payment method %s is not yet supported", method))
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
}
