package helpers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
)

// VATRate is the Saudi VAT applied on goods plus shipping.
var VATRate = decimal.RequireFromString("0.15")

// GroupBySupplier groups cart items by supplier, preserving each group's
// item insertion order.
func GroupBySupplier(items []models.CartItem) map[uuid.UUID][]models.CartItem {
	grouped := make(map[uuid.UUID][]models.CartItem, len(items))
	for _, item := range items {
		grouped[item.SupplierID] = append(grouped[item.SupplierID], item)
	}
	return grouped
}

// SupplierTotals are the computed checkout totals for one supplier's items.
type SupplierTotals struct {
	SupplierID    uuid.UUID
	Subtotal      decimal.Decimal
	ShippingTotal decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	ItemCount     int

	// HasInvalidPrice flags groups holding lines whose price or shipping
	// could not be resolved. Such lines contribute zero to every total and
	// the group cannot be checked out until the lines are repaired.
	HasInvalidPrice bool

	// ContactSupplier marks groups whose payable total after discount is
	// not positive. The storefront shows a contact prompt instead of a
	// payment button.
	ContactSupplier bool
}

// ComputeSupplierTotals derives a supplier group's totals:
// subtotal as the sum of unit price times quantity, tax at the VAT rate over
// subtotal plus shipping, and total as subtotal + shipping + tax - discount,
// rounded to two decimal places.
func ComputeSupplierTotals(items []models.CartItem, discount decimal.Decimal) SupplierTotals {
	var totals SupplierTotals
	if len(items) == 0 {
		return totals
	}
	totals.SupplierID = items[0].SupplierID

	for _, item := range items {
		if !item.UnitPrice.Valid || !item.ShippingCost.Valid {
			totals.HasInvalidPrice = true
		}
		totals.Subtotal = totals.Subtotal.Add(safeAmount(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))))
		totals.ShippingTotal = totals.ShippingTotal.Add(safeAmount(item.ShippingCost))
		totals.ItemCount++
	}

	if discount.IsNegative() {
		discount = decimal.Zero
	}
	totals.Discount = discount
	totals.Tax = totals.Subtotal.Add(totals.ShippingTotal).Mul(VATRate).Round(2)
	totals.Total = totals.Subtotal.
		Add(totals.ShippingTotal).
		Add(totals.Tax).
		Sub(discount).
		Round(2)
	totals.ContactSupplier = totals.Total.LessThanOrEqual(decimal.Zero)

	return totals
}

// ComputeTotalsBySupplier computes per-supplier totals for a whole cart. The
// discount applies to each supplier group independently.
func ComputeTotalsBySupplier(items []models.CartItem, discount decimal.Decimal) map[uuid.UUID]SupplierTotals {
	results := make(map[uuid.UUID]SupplierTotals)
	for supplierID, group := range GroupBySupplier(items) {
		results[supplierID] = ComputeSupplierTotals(group, discount)
	}
	return results
}

// safeAmount treats an unresolved price as zero so one broken line degrades
// the group total instead of corrupting it.
func safeAmount(value decimal.NullDecimal) decimal.Decimal {
	if !value.Valid {
		return decimal.Zero
	}
	return value.Decimal
}
