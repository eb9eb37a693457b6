package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/api/responses"
	"github.com/marsos-sa/marketplace-backend/api/validators"
	checkoutsvc "github.com/marsos-sa/marketplace-backend/internal/checkout"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
)

type checkoutRequest struct {
	CouponCode string `json:"couponCode" validate:"max=64"`
}

// CheckoutSadad submits the active cart as one SADAD invoice per supplier.
func CheckoutSadad(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.StartSadadCheckout(r.Context(), buyerID, checkoutsvc.CheckoutInput{
			CouponCode: req.CouponCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CheckoutCard opens a hosted card session covering the whole cart.
func CheckoutCard(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req checkoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.StartCardCheckout(r.Context(), buyerID, checkoutsvc.CheckoutInput{
			CouponCode: req.CouponCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

type cardVerifyRequest struct {
	OrderID      uuid.UUID `json:"orderId" validate:"required"`
	ResourcePath string    `json:"resourcePath" validate:"required,max=512"`
}

// CheckoutCardVerify settles an awaiting card order from the gateway verdict.
func CheckoutCardVerify(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cardVerifyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		verification, err := svc.VerifyCardPayment(r.Context(), buyerID, req.OrderID, req.ResourcePath)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, verification)
	}
}

// CheckoutUnsupported rejects payment methods the platform enumerates but
// does not yet settle.
func CheckoutUnsupported(method enums.PaymentMethod, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, string(method)+" payments are not yet supported"))
	}
}
