package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marsos-sa/marketplace-backend/internal/checkout/helpers"
	"github.com/marsos-sa/marketplace-backend/internal/coupons"
	"github.com/marsos-sa/marketplace-backend/internal/pricing"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type quoter interface {
	QuoteProduct(product *models.Product, qty int, location string) (*pricing.Quote, error)
}

// Service exposes buyer cart operations.
type Service interface {
	GetCart(ctx context.Context, buyerID uuid.UUID, couponCode string) (*View, error)
	AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*models.CartRecord, error)
	UpdateItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, rawQuantity string) (*models.CartItem, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error
	Clear(ctx context.Context, buyerID uuid.UUID) error
	RemoveSupplierItems(ctx context.Context, buyerID, supplierID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	pricer   quoter
	coupons  coupons.Validator
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, pricer quoter, couponValidator coupons.Validator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing engine required")
	}
	if couponValidator == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		pricer:   pricer,
		coupons:  couponValidator,
	}, nil
}

// AddItemInput is the payload for adding one product line to the cart.
type AddItemInput struct {
	ProductID        uuid.UUID
	Quantity         int
	Color            string
	Size             string
	DeliveryLocation string
}

// GetCart returns the buyer's active cart grouped by supplier. A submitted
// coupon that fails validation yields zero discount rather than an error, so
// the cart stays renderable.
func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID, couponCode string) (*View, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}

	record, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &View{CouponApplied: couponCode == ""}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	discount := decimal.Zero
	couponApplied := true
	if strings.TrimSpace(couponCode) != "" {
		amount, err := s.coupons.Validate(ctx, couponCode)
		if err != nil {
			couponApplied = false
		} else {
			discount = amount
		}
	}

	view := buildView(record, helpers.ComputeTotalsBySupplier(record.Items, discount))
	view.CouponApplied = couponApplied
	return view, nil
}

// AddItem adds a product line to the buyer's active cart, creating the cart
// when none exists. A line matching an existing variant merges into it and
// the merged quantity is re-priced against the product's tiers.
func (s *service) AddItem(ctx context.Context, buyerID uuid.UUID, input AddItemInput) (*models.CartRecord, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	qty := input.Quantity
	if qty < 1 {
		qty = 1
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if err := validateVariant(product, input.Color, input.Size); err != nil {
		return nil, err
	}

	newLine := models.CartItem{
		ProductID:        product.ID,
		SupplierID:       product.SupplierID,
		Name:             product.Name,
		Color:            strings.TrimSpace(input.Color),
		Size:             strings.TrimSpace(input.Size),
		DeliveryLocation: strings.TrimSpace(input.DeliveryLocation),
		Quantity:         qty,
		Currency:         string(product.Currency),
		MainImageURL:     product.MainImageURL,
	}

	var saved *models.CartRecord
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		record, err := txRepo.FindActiveByBuyer(ctx, buyerID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			record, err = txRepo.Create(ctx, &models.CartRecord{
				BuyerID:  buyerID,
				Currency: product.Currency,
			})
			if err != nil {
				return err
			}
		}

		merged := false
		for i := range record.Items {
			if record.Items[i].SameVariant(newLine) {
				record.Items[i].Quantity += qty
				if err := s.priceLine(product, &record.Items[i]); err != nil {
					return err
				}
				if _, err := txRepo.UpdateItem(ctx, &record.Items[i]); err != nil {
					return err
				}
				merged = true
				break
			}
		}

		if !merged {
			newLine.CartID = record.ID
			if err := s.priceLine(product, &newLine); err != nil {
				return err
			}
			if _, err := txRepo.CreateItem(ctx, &newLine); err != nil {
				return err
			}
		}

		saved, err = txRepo.FindActiveByBuyer(ctx, buyerID)
		return err
	}); err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart item")
	}

	return saved, nil
}

// UpdateItemQuantity applies a staged quantity edit. The raw value must be
// digits only; anything else reverts to the stored quantity. A parsed zero
// clamps to one. Quantity changes re-price the line because the matching
// tier can shift.
func (s *service) UpdateItemQuantity(ctx context.Context, buyerID, itemID uuid.UUID, rawQuantity string) (*models.CartItem, error) {
	if buyerID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and item id are required")
	}

	record, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	item, err := s.repo.FindItem(ctx, record.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	qty, ok := parseQuantity(rawQuantity)
	if !ok {
		// Invalid input reverts to the stored value.
		return item, nil
	}
	if qty == item.Quantity {
		return item, nil
	}

	item.Quantity = qty
	product, err := s.products.GetByID(ctx, item.ProductID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		// Listing is gone: keep the line but void its price so checkout
		// blocks until the buyer removes it.
		item.UnitPrice = decimal.NullDecimal{}
		item.ShippingCost = decimal.NullDecimal{}
	} else if err := s.priceLine(product, item); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return updated, nil
}

// RemoveItem deletes one line from the buyer's active cart.
func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) error {
	record, err := s.activeCart(ctx, buyerID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, record.ID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	return nil
}

// Clear deletes every line from the buyer's active cart.
func (s *service) Clear(ctx context.Context, buyerID uuid.UUID) error {
	record, err := s.activeCart(ctx, buyerID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItems(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// RemoveSupplierItems removes one supplier's lines, used after that
// supplier's checkout completes.
func (s *service) RemoveSupplierItems(ctx context.Context, buyerID, supplierID uuid.UUID) error {
	if supplierID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "supplier id is required")
	}
	record, err := s.activeCart(ctx, buyerID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSupplierItems(ctx, record.ID, supplierID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove supplier items")
	}
	return nil
}

func (s *service) activeCart(ctx context.Context, buyerID uuid.UUID) (*models.CartRecord, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	record, err := s.repo.FindActiveByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

// priceLine resolves unit price and shipping for the line's quantity and
// delivery location. An unmatched tier leaves the price null.
func (s *service) priceLine(product *models.Product, item *models.CartItem) error {
	quote, err := s.pricer.QuoteProduct(product, item.Quantity, item.DeliveryLocation)
	if err != nil {
		return err
	}
	item.UnitPrice = quote.UnitPrice
	item.ShippingCost = quote.ShippingCost
	return nil
}

// parseQuantity accepts digits-only input and clamps zero to one.
func parseQuantity(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	qty := 0
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return 0, false
		}
		qty = qty*10 + int(r-'0')
		if qty > 1_000_000 {
			return 0, false
		}
	}
	if qty < 1 {
		qty = 1
	}
	return qty, true
}

func validateVariant(product *models.Product, color, size string) error {
	if err := optionAllowed(product.Colors, color, "color"); err != nil {
		return err
	}
	return optionAllowed(product.Sizes, size, "size")
}

func optionAllowed(options []string, value, label string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || len(options) == 0 {
		return nil
	}
	for _, option := range options {
		if strings.EqualFold(option, trimmed) {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown product %s", label))
}
