package responses

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmoralesp/giftshop-backend/pkg/config"
)

func relayConfig(crossSite bool) config.CookieConfig {
	return config.CookieConfig{
		Name:      "giftshop_session",
		Domain:    "shop.example.com",
		CrossSite: crossSite,
		MaxAgeSec: 3600,
	}
}

func sessionCookie(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == "giftshop_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestRelayWriteSuccessSetsCookieAndToken(t *testing.T) {
	relay := NewSessionRelay(relayConfig(false))
	resp := httptest.NewRecorder()

	relay.WriteSuccess(resp, "tok-123", "session refreshed", nil)

	cookie := sessionCookie(t, resp)
	if cookie.Value != "tok-123" {
		t.Fatalf("unexpected cookie value %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Fatal("cookie must be http-only")
	}
	if cookie.Path != "/" {
		t.Fatalf("unexpected path %q", cookie.Path)
	}
	if cookie.MaxAge != 3600 {
		t.Fatalf("unexpected max-age %d", cookie.MaxAge)
	}

	envelope := decodeEnvelope(t, resp)
	if envelope.Token != "tok-123" {
		t.Fatalf("token not echoed in envelope: %q", envelope.Token)
	}
}

func TestRelaySameSiteCookieAttributes(t *testing.T) {
	relay := NewSessionRelay(relayConfig(false))
	cookie := relay.Cookie("tok")

	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected Lax got %v", cookie.SameSite)
	}
	if cookie.Secure {
		t.Fatal("same-site cookie should not require Secure")
	}
}

func TestRelayCrossSiteCookieAttributes(t *testing.T) {
	relay := NewSessionRelay(relayConfig(true))
	cookie := relay.Cookie("tok")

	if cookie.SameSite != http.SameSiteNoneMode {
		t.Fatalf("expected None got %v", cookie.SameSite)
	}
	if !cookie.Secure {
		t.Fatal("cross-site cookie must be Secure")
	}
}

func TestRelayEmptyTokenSkipsCookie(t *testing.T) {
	relay := NewSessionRelay(relayConfig(false))
	resp := httptest.NewRecorder()

	relay.WriteSuccessStatus(resp, http.StatusOK, "", "listing", nil)

	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("no cookie expected when token is empty")
	}
}

func TestRelayClearCookieExpiresSession(t *testing.T) {
	relay := NewSessionRelay(relayConfig(false))
	resp := httptest.NewRecorder()

	relay.ClearCookie(resp)

	cookie := sessionCookie(t, resp)
	if cookie.Value != "" {
		t.Fatalf("expected empty value got %q", cookie.Value)
	}
	if cookie.MaxAge != -1 {
		t.Fatalf("expected MaxAge -1 got %d", cookie.MaxAge)
	}
}
