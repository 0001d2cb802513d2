package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rmoralesp/giftshop-backend/api/middleware"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
)

// callerID returns the authenticated client id from the request context.
func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ClientIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid client id")
	}
	return id, nil
}

// requireOwnClient confirms a client id named in the path or body matches the
// authenticated caller. Operating on someone else's cart is always forbidden.
func requireOwnClient(r *http.Request, claimed uuid.UUID) (uuid.UUID, error) {
	caller, err := callerID(r)
	if err != nil {
		return uuid.Nil, err
	}
	if claimed != uuid.Nil && claimed != caller {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "client mismatch")
	}
	return caller, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+name)
	}
	return id, nil
}
