package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/giftshop-backend/pkg/enums"
)

// OrderCreatedEvent signals that a checkout produced a sale.
type OrderCreatedEvent struct {
	SaleID      uuid.UUID         `json:"sale_id"`
	CartID      uuid.UUID         `json:"cart_id"`
	ClientID    uuid.UUID         `json:"client_id"`
	Total       decimal.Decimal   `json:"total"`
	PaymentType enums.PaymentType `json:"payment_type"`
}

// DiscountConfirmedEvent is emitted once a pending discount becomes applied
// and the client's grant flips to used.
type DiscountConfirmedEvent struct {
	SaleID  uuid.UUID       `json:"sale_id"`
	CartID  uuid.UUID       `json:"cart_id"`
	GrantID uuid.UUID       `json:"grant_id"`
	Amount  decimal.Decimal `json:"amount"`
}

// CartArchivedEvent reports that a cart was flipped to completed and a fresh
// active one opened.
type CartArchivedEvent struct {
	CartID    uuid.UUID `json:"cart_id"`
	ClientID  uuid.UUID `json:"client_id"`
	NewCartID uuid.UUID `json:"new_cart_id"`
}

// SettlementRecoveredEvent reports that the reconciler repaired a post-order
// step that had failed at checkout time.
type SettlementRecoveredEvent struct {
	SaleID      uuid.UUID `json:"sale_id"`
	Step        string    `json:"step"`
	RecoveredAt time.Time `json:"recovered_at"`
}
