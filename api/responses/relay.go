package responses

import (
	"net/http"

	"github.com/rmoralesp/giftshop-backend/pkg/config"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// SessionRelay re-surfaces the caller's credential on mutating responses
// through both channels: a Set-Cookie header and the envelope token field.
// Cross-site deployments need Secure + SameSite=None for the cookie to
// survive; everything else gets Lax.
type SessionRelay struct {
	cookie config.CookieConfig
}

// NewSessionRelay builds a relay from the cookie configuration.
func NewSessionRelay(cfg config.CookieConfig) *SessionRelay {
	return &SessionRelay{cookie: cfg}
}

// Cookie builds the session cookie carrying the credential.
func (s *SessionRelay) Cookie(token string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     s.cookie.Name,
		Value:    token,
		Path:     "/",
		Domain:   s.cookie.Domain,
		MaxAge:   s.cookie.MaxAgeSec,
		HttpOnly: true,
	}
	if s.cookie.CrossSite {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}
	return cookie
}

// WriteSuccess writes a success envelope with the credential echoed in the
// token field, re-issuing the session cookie alongside.
func (s *SessionRelay) WriteSuccess(w http.ResponseWriter, token, message string, data any) {
	s.WriteSuccessStatus(w, http.StatusOK, token, message, data)
}

// WriteSuccessStatus is WriteSuccess with an explicit status code.
func (s *SessionRelay) WriteSuccessStatus(w http.ResponseWriter, status int, token, message string, data any) {
	if token != "" {
		http.SetCookie(w, s.Cookie(token))
	}
	writeJSON(w, status, types.Envelope{Success: true, Message: message, Data: data, Token: token})
}

// ClearCookie expires the session cookie, used on logout.
func (s *SessionRelay) ClearCookie(w http.ResponseWriter) {
	cookie := s.Cookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}
