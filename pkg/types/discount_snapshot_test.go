package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDiscountSnapshotColumnRoundTrip(t *testing.T) {
	snapshot := DiscountSnapshot{
		GrantID:    uuid.New(),
		Code:       "SUMMER10",
		Percentage: 10,
		Amount:     decimal.RequireFromString("4.50"),
		Color:      "#ff8800",
	}

	raw, err := snapshot.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	encoded, ok := raw.([]byte)
	if !ok {
		t.Fatalf("expected []byte column value, got %T", raw)
	}

	var decoded DiscountSnapshot
	if err := decoded.Scan(encoded); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if decoded.GrantID != snapshot.GrantID || decoded.Code != snapshot.Code || decoded.Percentage != snapshot.Percentage {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	if !decoded.Amount.Equal(snapshot.Amount) {
		t.Fatalf("amount mismatch: %s", decoded.Amount)
	}

	var fromString DiscountSnapshot
	if err := fromString.Scan(string(encoded)); err != nil {
		t.Fatalf("scan from string failed: %v", err)
	}
	if fromString.Code != snapshot.Code {
		t.Fatalf("string scan mismatch: %+v", fromString)
	}
}

func TestDiscountSnapshotScanNilClears(t *testing.T) {
	decoded := DiscountSnapshot{Code: "stale"}
	if err := decoded.Scan(nil); err != nil {
		t.Fatalf("scan nil failed: %v", err)
	}
	if decoded.Code != "" {
		t.Fatalf("expected cleared snapshot, got %+v", decoded)
	}
	if err := decoded.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported source type")
	}
}
