package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	authsvc "github.com/rmoralesp/giftshop-backend/internal/auth"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
)

type stubAuthService struct {
	result *authsvc.LoginResult
	err    error

	loggedOut string
}

func (s *stubAuthService) Login(context.Context, authsvc.LoginInput) (*authsvc.LoginResult, error) {
	return s.result, s.err
}

func (s *stubAuthService) Logout(_ context.Context, sessionID string) error {
	s.loggedOut = sessionID
	return s.err
}

func TestLoginIssuesTokenThroughBothChannels(t *testing.T) {
	clientID := uuid.New()
	svc := &stubAuthService{result: &authsvc.LoginResult{
		Token:    "tok-abc",
		ClientID: clientID,
		Name:     "Ana",
		Email:    "ana@example.com",
	}}
	handler := Login(svc, testRelay(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"hunter22"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var cookieValue string
	for _, c := range resp.Result().Cookies() {
		if c.Name == "giftshop_session" {
			cookieValue = c.Value
		}
	}
	if cookieValue != "tok-abc" {
		t.Fatalf("expected session cookie, got %q", cookieValue)
	}

	payload := decodeBody(t, resp)
	if payload["token"] != "tok-abc" {
		t.Fatalf("token not echoed in envelope: %v", payload["token"])
	}
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape %v", payload)
	}
	if data["client_id"] != clientID.String() {
		t.Fatalf("unexpected client id %v", data["client_id"])
	}
	if _, leaked := data["token"]; leaked {
		t.Fatal("token must not appear inside the profile payload")
	}
}

func TestLoginRejectsBadEmail(t *testing.T) {
	handler := Login(&stubAuthService{}, testRelay(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"not-an-email","password":"hunter22"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLoginPropagatesUnauthorized(t *testing.T) {
	svc := &stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := Login(svc, testRelay(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ana@example.com","password":"wrong"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestLogoutClearsCookieAndRevokesSession(t *testing.T) {
	svc := &stubAuthService{}
	handler := Logout(svc, testRelay(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var cleared bool
	for _, c := range resp.Result().Cookies() {
		if c.Name == "giftshop_session" && c.MaxAge == -1 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected expired session cookie")
	}
}
