package controllers

import (
	"net/http"

	"github.com/rmoralesp/giftshop-backend/api/middleware"
	"github.com/rmoralesp/giftshop-backend/api/responses"
	"github.com/rmoralesp/giftshop-backend/api/validators"
	authsvc "github.com/rmoralesp/giftshop-backend/internal/auth"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
)

// Login verifies shopper credentials and issues the session token through
// both relay channels.
func Login(svc authsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload authsvc.LoginInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.WriteSuccess(w, result.Token, "logged in", result)
	}
}

// Logout revokes the caller's session and expires the cookie.
func Logout(svc authsvc.Service, relay *responses.SessionRelay, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if err := svc.Logout(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		relay.ClearCookie(w)
		responses.WriteSuccess(w, "logged out", nil)
	}
}
