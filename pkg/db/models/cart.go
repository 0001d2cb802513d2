package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// Cart is the single mutable shopping document per client. ActiveMarker holds
// the client id while the cart is active and NULL once completed; the unique
// index on it guarantees at most one active cart per client even under
// concurrent find-or-create calls.
type Cart struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID        uuid.UUID               `gorm:"column:client_id;type:uuid;not null;index"`
	Status          enums.CartStatus        `gorm:"column:status;not null;default:'active'"`
	ActiveMarker    *string                 `gorm:"column:active_marker;uniqueIndex:idx_carts_active_marker"`
	Total           decimal.Decimal         `gorm:"column:total;type:numeric(12,2);not null"`
	PendingDiscount *types.DiscountSnapshot `gorm:"column:pending_discount;type:jsonb;serializer:json"`
	AppliedDiscount *types.DiscountSnapshot `gorm:"column:applied_discount;type:jsonb;serializer:json"`
	Items           []CartItem              `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CompletedAt     *time.Time              `gorm:"column:completed_at"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// Subtotal sums the line subtotals without any discount.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}
