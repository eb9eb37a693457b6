package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/api/middleware"
	"github.com/marsos-sa/marketplace-backend/api/responses"
	"github.com/marsos-sa/marketplace-backend/api/validators"
	internalorders "github.com/marsos-sa/marketplace-backend/internal/orders"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox"
	"github.com/marsos-sa/marketplace-backend/pkg/pagination"
)

// OrdersList returns the buyer's orders newest first with optional status,
// payment method, and date range filters.
func OrdersList(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		filters, err := buildOrderFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), buyerID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type orderDetailDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   int64               `json:"orderNumber"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	SupplierID    *uuid.UUID          `json:"supplierId,omitempty"`
	Items         any                 `json:"items"`
	Subtotal      string              `json:"subtotal"`
	ShippingTotal string              `json:"shippingTotal"`
	Tax           string              `json:"tax"`
	Discount      string              `json:"discount"`
	TotalAmount   string              `json:"totalAmount"`
	Currency      enums.Currency      `json:"currency"`
	CouponCode    *string             `json:"couponCode,omitempty"`
	BillNumber    *string             `json:"billNumber,omitempty"`
	SadadNumber   *string             `json:"sadadNumber,omitempty"`
	ResultCode    *string             `json:"resultCode,omitempty"`
	FailureReason *string             `json:"failureReason,omitempty"`
	ExpiresAt     *time.Time          `json:"expiresAt,omitempty"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
	ApprovedAt    *time.Time          `json:"approvedAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// OrderDetail returns one order scoped to its buyer.
func OrderDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuidURLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), buyerID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toOrderDetailDTO(order))
	}
}

// OrderSadadDetail returns the SADAD confirmation view looked up by bill
// number, for the post-checkout payment instructions page.
func OrderSadadDetail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		billNumber := strings.TrimSpace(chi.URLParam(r, "billNumber"))
		detail, err := svc.GetSadadByBillNumber(r.Context(), buyerID, billNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

type adminDecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve cancel"`
}

// AdminOrderDecision applies an approve or cancel decision on an order.
func AdminOrderDecision(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuidURLParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adminDecisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := &outbox.ActorRef{
			UserID: adminID,
			Role:   middleware.RoleFromContext(r.Context()),
		}
		decision := internalorders.AdminDecision(req.Decision)
		if err := svc.Decide(r.Context(), orderID, decision, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": string(decision)})
	}
}

func buildOrderFilters(r *http.Request) (internalorders.Filters, error) {
	var filters internalorders.Filters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("paymentMethod")); raw != "" {
		method, err := enums.ParsePaymentMethod(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method filter")
		}
		filters.PaymentMethod = &method
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from filter")
		}
		filters.DateFrom = &from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to filter")
		}
		filters.DateTo = &to
	}

	return filters, nil
}

func toOrderDetailDTO(order *models.Order) orderDetailDTO {
	return orderDetailDTO{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentMethod: order.PaymentMethod,
		SupplierID:    order.SupplierID,
		Items:         order.Items,
		Subtotal:      order.Subtotal.StringFixed(2),
		ShippingTotal: order.ShippingTotal.StringFixed(2),
		Tax:           order.TaxTotal.StringFixed(2),
		Discount:      order.Discount.StringFixed(2),
		TotalAmount:   order.TotalAmount.StringFixed(2),
		Currency:      order.Currency,
		CouponCode:    order.CouponCode,
		BillNumber:    order.BillNumber,
		SadadNumber:   order.SadadNumber,
		ResultCode:    order.ResultCode,
		FailureReason: order.FailureReason,
		ExpiresAt:     order.ExpiresAt,
		PaidAt:        order.PaidAt,
		ApprovedAt:    order.ApprovedAt,
		CreatedAt:     order.CreatedAt,
	}
}
