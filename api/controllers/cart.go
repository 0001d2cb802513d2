package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/rmoralesp/giftshop-backend/api/middleware"
	"github.com/rmoralesp/giftshop-backend/api/responses"
	"github.com/rmoralesp/giftshop-backend/api/validators"
	cartsvc "github.com/rmoralesp/giftshop-backend/internal/cart"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
)

// CartActive returns the caller's active cart, creating one when missing.
func CartActive(svc cartsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		claimed, err := pathUUID(r, "clientId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := requireOwnClient(r, claimed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetActiveCart(r.Context(), clientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, middleware.TokenFromContext(r.Context()), "active cart", view)
	}
}

type addItemRequest struct {
	ClientID uuid.UUID `json:"client_id" validate:"required"`
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	ItemType string    `json:"item_type" validate:"required,oneof=product custom_product"`
	Quantity int       `json:"quantity" validate:"required,min=1,max=99"`
}

// CartAddItem adds a catalog entity to the caller's active cart.
func CartAddItem(svc cartsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := requireOwnClient(r, payload.ClientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddItem(r.Context(), clientID, cartsvc.AddItemInput{
			ItemType: payload.ItemType,
			ItemID:   payload.ItemID,
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, middleware.TokenFromContext(r.Context()), "item added", view)
	}
}

type updateQuantityRequest struct {
	ClientID uuid.UUID `json:"client_id" validate:"required"`
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1,max=99"`
}

// CartUpdateQuantity changes the quantity of a line in the active cart.
func CartUpdateQuantity(svc cartsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := requireOwnClient(r, payload.ClientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateItemQuantity(r.Context(), clientID, payload.ItemID, cartsvc.UpdateQuantityInput{
			Quantity: payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, middleware.TokenFromContext(r.Context()), "quantity updated", view)
	}
}

type removeItemRequest struct {
	ClientID uuid.UUID `json:"client_id" validate:"required"`
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
}

// CartRemoveItem deletes a line from the active cart.
func CartRemoveItem(svc cartsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var payload removeItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := requireOwnClient(r, payload.ClientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), clientID, payload.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, middleware.TokenFromContext(r.Context()), "item removed", view)
	}
}

type clearAfterPurchaseRequest struct {
	ClientID uuid.UUID `json:"client_id" validate:"required"`
	OrderID  uuid.UUID `json:"order_id" validate:"required"`
}

// CartClearAfterPurchase archives a purchased cart and reopens a fresh one.
func CartClearAfterPurchase(svc cartsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		cartID, err := pathUUID(r, "cartId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload clearAfterPurchaseRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clientID, err := requireOwnClient(r, payload.ClientID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		nextCartID, err := svc.ClearAfterPurchase(r.Context(), clientID, cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, middleware.TokenFromContext(r.Context()), "cart archived", map[string]string{
			"next_cart_id": nextCartID.String(),
		})
	}
}
