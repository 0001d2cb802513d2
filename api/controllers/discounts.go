package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rmoralesp/giftshop-backend/api/middleware"
	"github.com/rmoralesp/giftshop-backend/api/responses"
	"github.com/rmoralesp/giftshop-backend/api/validators"
	discountsvc "github.com/rmoralesp/giftshop-backend/internal/discounts"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
)

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

// ApplyPendingDiscount attaches a promotional code to a cart.
func ApplyPendingDiscount(svc discountsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.ApplyPending(r.Context(), clientID, cartID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, middleware.TokenFromContext(r.Context()), "discount attached", view)
	}
}

// RemovePendingDiscount detaches the pending promotional code from a cart.
func RemovePendingDiscount(svc discountsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemovePending(r.Context(), clientID, cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, middleware.TokenFromContext(r.Context()), "discount removed", view)
	}
}

type confirmDiscountRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

// ConfirmDiscount promotes the cart's pending discount to applied.
func ConfirmDiscount(svc discountsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload confirmDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ConfirmDiscount(r.Context(), clientID, cartID, payload.OrderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, middleware.TokenFromContext(r.Context()), "discount confirmed", nil)
	}
}
