package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
)

type addItemBody struct {
	ItemType string `json:"item_type" validate:"required,oneof=product custom_product"`
	ItemID   string `json:"item_id" validate:"required,uuid4"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=99"`
}

func postJSON(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body))
}

func TestDecodeJSONBodyValidPayload(t *testing.T) {
	var dest addItemBody
	err := DecodeJSONBody(postJSON(`{"item_type":"product","item_id":"7f9c24e5-1af0-4bd0-9e3c-6a2f8f1f3b11","quantity":2}`), &dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.Quantity != 2 {
		t.Fatalf("unexpected quantity %d", dest.Quantity)
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	var dest addItemBody
	err := DecodeJSONBody(postJSON(`{"item_type":`), &dest)
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	var dest addItemBody
	err := DecodeJSONBody(postJSON(`{"item_type":"product","item_id":"7f9c24e5-1af0-4bd0-9e3c-6a2f8f1f3b11","quantity":2,"price":"1.00"}`), &dest)
	if err == nil {
		t.Fatal("expected unknown field rejection")
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	var dest addItemBody
	err := DecodeJSONBody(postJSON(`{"item_type":"bundle","item_id":"not-a-uuid","quantity":120}`), &dest)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details shape %T", typed.Details())
	}
	for _, field := range []string{"item_type", "item_id", "quantity"} {
		if _, present := details[field]; !present {
			t.Fatalf("expected detail for %s, got %v", field, details)
		}
	}
	if details["quantity"] != "must be at most 99" {
		t.Fatalf("unexpected quantity message %q", details["quantity"])
	}
}

func TestValidateStructMissingRequired(t *testing.T) {
	err := ValidateStruct(&addItemBody{})
	if err == nil {
		t.Fatal("expected validation failure")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}
