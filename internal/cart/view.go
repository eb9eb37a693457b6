package cart

import (
	"sort"

	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/internal/checkout/helpers"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
)

// SupplierGroup is one supplier's slice of the cart with its computed totals.
type SupplierGroup struct {
	SupplierID uuid.UUID
	Items      []models.CartItem
	Totals     helpers.SupplierTotals
}

// View is the grouped cart presentation the storefront renders.
type View struct {
	CartID   uuid.UUID
	Currency enums.Currency
	Groups   []SupplierGroup

	// CouponApplied is false when a submitted coupon code failed validation;
	// totals are then computed with zero discount.
	CouponApplied bool

	// CheckoutDisabled is true while any line's price is unresolved.
	CheckoutDisabled bool
}

// buildView groups the cart and attaches totals, ordering groups by supplier
// id so output is stable across requests.
func buildView(record *models.CartRecord, totals map[uuid.UUID]helpers.SupplierTotals) *View {
	view := &View{
		CartID:   record.ID,
		Currency: record.Currency,
	}

	grouped := helpers.GroupBySupplier(record.Items)
	supplierIDs := make([]uuid.UUID, 0, len(grouped))
	for supplierID := range grouped {
		supplierIDs = append(supplierIDs, supplierID)
	}
	sort.Slice(supplierIDs, func(i, j int) bool {
		return supplierIDs[i].String() < supplierIDs[j].String()
	})

	for _, supplierID := range supplierIDs {
		group := SupplierGroup{
			SupplierID: supplierID,
			Items:      grouped[supplierID],
			Totals:     totals[supplierID],
		}
		if group.Totals.HasInvalidPrice {
			view.CheckoutDisabled = true
		}
		view.Groups = append(view.Groups, group)
	}

	return view
}
