package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/giftshop-backend/pkg/enums"
)

// CartItem is a priced line inside a cart. UnitPrice and Subtotal are
// snapshots taken at mutation time, not live catalog reads.
type CartItem struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID          `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_entity"`
	ItemType  enums.CartItemType `gorm:"column:item_type;not null;uniqueIndex:idx_cart_items_cart_entity"`
	ItemID    uuid.UUID          `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_cart_items_cart_entity"`
	Quantity  int                `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal    `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal  decimal.Decimal    `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
