package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rmoralesp/giftshop-backend/api/responses"
	pkgAuth "github.com/rmoralesp/giftshop-backend/pkg/auth"
	"github.com/rmoralesp/giftshop-backend/pkg/auth/session"
	"github.com/rmoralesp/giftshop-backend/pkg/config"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
)

// ExtractCredential pulls the raw credential off the request: the session
// cookie is checked first, the Authorization bearer header is the fallback.
func ExtractCredential(r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil {
		if value := strings.TrimSpace(cookie.Value); value != "" {
			return value
		}
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

// Auth validates the caller's credential and seeds the request context with
// the claims plus the raw token for the response relay.
func Auth(jwtCfg config.JWTConfig, cookieCfg config.CookieConfig, verifier session.SessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractCredential(r, cookieCfg.Name)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(jwtCfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxClientID, claims.ClientID.String())
			ctx = context.WithValue(ctx, ctxSessionID, claims.ID)
			ctx = context.WithValue(ctx, ctxToken, token)

			if logg != nil {
				ctx = logg.WithClientID(ctx, claims.ClientID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
