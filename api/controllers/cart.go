package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marsos-sa/marketplace-backend/api/responses"
	"github.com/marsos-sa/marketplace-backend/api/validators"
	cartsvc "github.com/marsos-sa/marketplace-backend/internal/cart"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
)

type cartItemDTO struct {
	ID               uuid.UUID        `json:"id"`
	ProductID        uuid.UUID        `json:"productId"`
	SupplierID       uuid.UUID        `json:"supplierId"`
	Name             string           `json:"name"`
	Color            string           `json:"color,omitempty"`
	Size             string           `json:"size,omitempty"`
	DeliveryLocation string           `json:"deliveryLocation,omitempty"`
	Quantity         int              `json:"quantity"`
	UnitPrice        *decimal.Decimal `json:"unitPrice"`
	ShippingCost     *decimal.Decimal `json:"shippingCost"`
	Currency         string           `json:"currency"`
	MainImageURL     *string          `json:"mainImageUrl,omitempty"`
}

type cartTotalsDTO struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingTotal   decimal.Decimal `json:"shippingTotal"`
	Tax             decimal.Decimal `json:"tax"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	ItemCount       int             `json:"itemCount"`
	HasInvalidPrice bool            `json:"hasInvalidPrice"`
	ContactSupplier bool            `json:"contactSupplier"`
}

type cartGroupDTO struct {
	SupplierID uuid.UUID     `json:"supplierId"`
	Items      []cartItemDTO `json:"items"`
	Totals     cartTotalsDTO `json:"totals"`
}

type cartViewDTO struct {
	CartID           uuid.UUID      `json:"cartId"`
	Currency         enums.Currency `json:"currency"`
	Groups           []cartGroupDTO `json:"groups"`
	CouponApplied    bool           `json:"couponApplied"`
	CheckoutDisabled bool           `json:"checkoutDisabled"`
}

// CartFetch returns the buyer's active cart grouped by supplier. An optional
// coupon query parameter prices the view with the discount applied.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon := strings.TrimSpace(r.URL.Query().Get("coupon"))
		view, err := svc.GetCart(r.Context(), buyerID, coupon)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCartViewDTO(view))
	}
}

type cartQuoteRequest struct {
	CouponCode string `json:"couponCode" validate:"required,max=64"`
}

// CartQuote prices the active cart with a coupon without mutating anything.
func CartQuote(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cartQuoteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCart(r.Context(), buyerID, req.CouponCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCartViewDTO(view))
	}
}

type cartAddItemRequest struct {
	ProductID        uuid.UUID `json:"productId" validate:"required"`
	Quantity         int       `json:"quantity" validate:"required,min=1"`
	Color            string    `json:"color" validate:"max=64"`
	Size             string    `json:"size" validate:"max=64"`
	DeliveryLocation string    `json:"deliveryLocation" validate:"max=128"`
}

// CartAddItem adds one product line to the buyer's active cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), buyerID, cartsvc.AddItemInput{
			ProductID:        req.ProductID,
			Quantity:         req.Quantity,
			Color:            validators.SanitizeString(req.Color, 64),
			Size:             validators.SanitizeString(req.Size, 64),
			DeliveryLocation: validators.SanitizeString(req.DeliveryLocation, 128),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"cartId":    record.ID,
			"itemCount": len(record.Items),
		})
	}
}

type cartQuantityRequest struct {
	// Quantity is accepted as raw text; the service reverts non-numeric edits
	// to the stored value instead of erroring.
	Quantity string `json:"quantity" validate:"required,max=9"`
}

// CartUpdateItemQuantity commits a staged quantity edit on one cart line.
func CartUpdateItemQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuidURLParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateItemQuantity(r.Context(), buyerID, itemID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toCartItemDTO(*item))
	}
}

// CartRemoveItem deletes one line from the buyer's cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := uuidURLParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), buyerID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// CartClear empties the buyer's active cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), buyerID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

func toCartViewDTO(view *cartsvc.View) cartViewDTO {
	if view == nil {
		return cartViewDTO{}
	}
	dto := cartViewDTO{
		CartID:           view.CartID,
		Currency:         view.Currency,
		Groups:           make([]cartGroupDTO, 0, len(view.Groups)),
		CouponApplied:    view.CouponApplied,
		CheckoutDisabled: view.CheckoutDisabled,
	}
	for _, group := range view.Groups {
		items := make([]cartItemDTO, 0, len(group.Items))
		for _, item := range group.Items {
			items = append(items, toCartItemDTO(item))
		}
		dto.Groups = append(dto.Groups, cartGroupDTO{
			SupplierID: group.SupplierID,
			Items:      items,
			Totals: cartTotalsDTO{
				Subtotal:        group.Totals.Subtotal,
				ShippingTotal:   group.Totals.ShippingTotal,
				Tax:             group.Totals.Tax,
				Discount:        group.Totals.Discount,
				Total:           group.Totals.Total,
				ItemCount:       group.Totals.ItemCount,
				HasInvalidPrice: group.Totals.HasInvalidPrice,
				ContactSupplier: group.Totals.ContactSupplier,
			},
		})
	}
	return dto
}

func toCartItemDTO(item models.CartItem) cartItemDTO {
	dto := cartItemDTO{
		ID:               item.ID,
		ProductID:        item.ProductID,
		SupplierID:       item.SupplierID,
		Name:             item.Name,
		Color:            item.Color,
		Size:             item.Size,
		DeliveryLocation: item.DeliveryLocation,
		Quantity:         item.Quantity,
		Currency:         item.Currency,
		MainImageURL:     item.MainImageURL,
	}
	if item.UnitPrice.Valid {
		price := item.UnitPrice.Decimal
		dto.UnitPrice = &price
	}
	if item.ShippingCost.Valid {
		shipping := item.ShippingCost.Decimal
		dto.ShippingCost = &shipping
	}
	return dto
}
