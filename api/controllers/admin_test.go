package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	cartsvc "github.com/rmoralesp/giftshop-backend/internal/cart"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/metrics"
)

func TestCartsCleanupReportsSweep(t *testing.T) {
	svc := &stubCartService{}
	svc.cleanupReport = &cartsvc.CleanupReport{ClientsAffected: 2, CartsArchived: 3}
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.NewRegistry())
	handler := CartsCleanup(svc, checkoutMetrics, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/carts/cleanup", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	payload := decodeBody(t, resp)
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape %v", payload)
	}
	if data["carts_archived"] != float64(3) {
		t.Fatalf("unexpected report %v", data)
	}
}

func TestCartsCleanupPropagatesFailure(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeInternal, "sweep failed")}
	handler := CartsCleanup(svc, nil, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/carts/cleanup", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
