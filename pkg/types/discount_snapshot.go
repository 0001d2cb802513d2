package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountSnapshot freezes a promotional code at the moment it was attached
// to a cart. The amount is computed once against the subtotal of that moment
// and is not recomputed when the cart changes afterward.
type DiscountSnapshot struct {
	GrantID    uuid.UUID       `json:"grant_id"`
	Code       string          `json:"code"`
	Percentage int             `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
	Color      string          `json:"color,omitempty"`
}

// Value marshals the snapshot for jsonb columns. Needed because discount
// writes go through map-based Updates, which skip the gorm serializer.
func (d DiscountSnapshot) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan unmarshals a jsonb column back into the snapshot.
func (d *DiscountSnapshot) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = DiscountSnapshot{}
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported discount snapshot source %T", value)
	}
}
