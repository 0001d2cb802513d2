package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rmoralesp/giftshop-backend/api/middleware"
	"github.com/rmoralesp/giftshop-backend/api/responses"
	cartsvc "github.com/rmoralesp/giftshop-backend/internal/cart"
	"github.com/rmoralesp/giftshop-backend/pkg/config"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
)

type stubCartService struct {
	view          *cartsvc.View
	nextCartID    uuid.UUID
	cleanupReport *cartsvc.CleanupReport
	err           error

	addInput    cartsvc.AddItemInput
	removedItem uuid.UUID
}

func (s *stubCartService) GetActiveCart(context.Context, uuid.UUID) (*cartsvc.View, error) {
	return s.view, s.err
}

func (s *stubCartService) AddItem(_ context.Context, _ uuid.UUID, input cartsvc.AddItemInput) (*cartsvc.View, error) {
	s.addInput = input
	return s.view, s.err
}

func (s *stubCartService) UpdateItemQuantity(context.Context, uuid.UUID, uuid.UUID, cartsvc.UpdateQuantityInput) (*cartsvc.View, error) {
	return s.view, s.err
}

func (s *stubCartService) RemoveItem(_ context.Context, _ uuid.UUID, itemRowID uuid.UUID) (*cartsvc.View, error) {
	s.removedItem = itemRowID
	return s.view, s.err
}

func (s *stubCartService) ClearAfterPurchase(context.Context, uuid.UUID, uuid.UUID) (uuid.UUID, error) {
	return s.nextCartID, s.err
}

func (s *stubCartService) CleanupDuplicateCarts(context.Context) (*cartsvc.CleanupReport, error) {
	return s.cleanupReport, s.err
}

func testRelay() *responses.SessionRelay {
	return responses.NewSessionRelay(config.CookieConfig{Name: "giftshop_session", MaxAgeSec: 3600})
}

func authedRequest(method, target string, body io.Reader, clientID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := middleware.WithClientID(req.Context(), clientID.String())
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, name, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	payload := decodeBody(t, resp)
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected error payload %v", payload)
	}
	code, _ := data["code"].(string)
	return code
}

func TestCartActiveReturnsView(t *testing.T) {
	clientID := uuid.New()
	view := &cartsvc.View{ID: uuid.New(), Status: "active"}
	svc := &stubCartService{view: view}
	handler := CartActive(svc, testRelay(), nil)

	req := authedRequest(http.MethodGet, "/api/v1/clients/"+clientID.String()+"/cart", nil, clientID)
	req = withURLParam(req, "clientId", clientID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	payload := decodeBody(t, resp)
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape %v", payload)
	}
	if data["id"] != view.ID.String() {
		t.Fatalf("unexpected cart id %v", data["id"])
	}
}

func TestCartActiveForbiddenForOtherClient(t *testing.T) {
	caller := uuid.New()
	other := uuid.New()
	handler := CartActive(&stubCartService{}, testRelay(), nil)

	req := authedRequest(http.MethodGet, "/api/v1/clients/"+other.String()+"/cart", nil, caller)
	req = withURLParam(req, "clientId", other.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestCartActiveRequiresAuthContext(t *testing.T) {
	handler := CartActive(&stubCartService{}, testRelay(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/"+uuid.NewString()+"/cart", nil)
	req = withURLParam(req, "clientId", uuid.NewString())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddItemPassesInputThrough(t *testing.T) {
	clientID := uuid.New()
	itemID := uuid.New()
	svc := &stubCartService{view: &cartsvc.View{ID: uuid.New()}}
	handler := CartAddItem(svc, testRelay(), nil)

	body := `{"client_id":"` + clientID.String() + `","item_id":"` + itemID.String() + `","item_type":"product","quantity":3}`
	req := authedRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body), clientID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.addInput.ItemID != itemID {
		t.Fatalf("unexpected item id %s", svc.addInput.ItemID)
	}
	if svc.addInput.Quantity != 3 {
		t.Fatalf("unexpected quantity %d", svc.addInput.Quantity)
	}
}

func TestCartAddItemRejectsBadQuantity(t *testing.T) {
	clientID := uuid.New()
	handler := CartAddItem(&stubCartService{}, testRelay(), nil)

	body := `{"client_id":"` + clientID.String() + `","item_id":"` + uuid.NewString() + `","item_type":"product","quantity":150}`
	req := authedRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body), clientID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code %q", code)
	}
}

func TestCartRemoveItemPropagatesNotFound(t *testing.T) {
	clientID := uuid.New()
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")}
	handler := CartRemoveItem(svc, testRelay(), nil)

	body := `{"client_id":"` + clientID.String() + `","item_id":"` + uuid.NewString() + `"}`
	req := authedRequest(http.MethodDelete, "/api/v1/cart/items", strings.NewReader(body), clientID)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartClearAfterPurchaseReturnsNextCart(t *testing.T) {
	clientID := uuid.New()
	cartID := uuid.New()
	orderID := uuid.New()
	next := uuid.New()
	svc := &stubCartService{nextCartID: next}
	handler := CartClearAfterPurchase(svc, testRelay(), nil)

	body := `{"client_id":"` + clientID.String() + `","order_id":"` + orderID.String() + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/carts/"+cartID.String()+"/clear", strings.NewReader(body), clientID)
	req = withURLParam(req, "cartId", cartID.String())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	payload := decodeBody(t, resp)
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape %v", payload)
	}
	if data["next_cart_id"] != next.String() {
		t.Fatalf("unexpected next cart id %v", data["next_cart_id"])
	}
}

func TestCartClearAfterPurchaseRejectsBadCartID(t *testing.T) {
	clientID := uuid.New()
	handler := CartClearAfterPurchase(&stubCartService{}, testRelay(), nil)

	body := `{"client_id":"` + clientID.String() + `","order_id":"` + uuid.NewString() + `"}`
	req := authedRequest(http.MethodPost, "/api/v1/carts/not-a-uuid/clear", strings.NewReader(body), clientID)
	req = withURLParam(req, "cartId", "not-a-uuid")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
