package pricing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
	"github.com/marsos-sa/marketplace-backend/pkg/types"
)

// Quote is the resolved pricing for one product line.
type Quote struct {
	UnitPrice    decimal.NullDecimal
	ShippingCost decimal.NullDecimal
	TierMinQty   int
}

// Engine resolves unit prices and shipping costs from product price tiers.
type Engine struct{}

// NewEngine builds a pricing engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ResolveUnitPrice returns the price of the first tier, ordered by minimum
// quantity ascending, whose range contains qty. No matching tier yields an
// invalid (null) price so the line degrades instead of charging a wrong amount.
func (e *Engine) ResolveUnitPrice(tiers types.PriceTiers, qty int) (decimal.NullDecimal, *types.PriceTier) {
	tier := matchTier(tiers, qty)
	if tier == nil {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NullDecimal{Decimal: tier.Price, Valid: true}, tier
}

// ResolveShipping returns the matched tier's shipping cost for the delivery
// location. Locations compare case-insensitively after trimming whitespace;
// an empty or unpriced location ships free.
func (e *Engine) ResolveShipping(tier *types.PriceTier, location string) decimal.Decimal {
	if tier == nil {
		return decimal.Zero
	}
	return tier.ShippingFor(location)
}

// QuoteProduct resolves both price components for one cart line.
func (e *Engine) QuoteProduct(product *models.Product, qty int, location string) (*Quote, error) {
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	unitPrice, tier := e.ResolveUnitPrice(product.PriceTiers, qty)
	quote := &Quote{UnitPrice: unitPrice}
	if tier != nil {
		quote.TierMinQty = tier.MinQty
		quote.ShippingCost = decimal.NullDecimal{
			Decimal: e.ResolveShipping(tier, location),
			Valid:   true,
		}
	}
	return quote, nil
}

// matchTier walks tiers in MinQty ascending order and returns the first one
// containing qty. Ties on MinQty keep input order.
func matchTier(tiers types.PriceTiers, qty int) *types.PriceTier {
	if len(tiers) == 0 || qty < 1 {
		return nil
	}

	sorted := make([]types.PriceTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinQty < sorted[j].MinQty
	})

	for i := range sorted {
		if sorted[i].Matches(qty) {
			return &sorted[i]
		}
	}
	return nil
}

// NormalizeLocation canonicalizes a delivery location for comparisons and
// duplicate-line detection.
func NormalizeLocation(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}
