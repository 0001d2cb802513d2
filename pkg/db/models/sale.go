package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// Sale is an order produced by a completed checkout wizard. The settlement
// columns mark the post-order steps (discount confirmation, cart archival)
// that run outside the order-creation transaction; a reconciler retries them
// until settled.
type Sale struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID           uuid.UUID              `gorm:"column:client_id;type:uuid;not null;index"`
	CartID             uuid.UUID              `gorm:"column:cart_id;type:uuid;not null;index"`
	Total              decimal.Decimal        `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentType        enums.PaymentType      `gorm:"column:payment_type;not null"`
	PaymentProofURL    *string                `gorm:"column:payment_proof_url"`
	ReceiverName       string                 `gorm:"column:receiver_name;not null"`
	ReceiverPhone      string                 `gorm:"column:receiver_phone;not null"`
	ShippingAddress    types.Address          `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	DeliveryPoint      string                 `gorm:"column:delivery_point"`
	DeliveryDate       time.Time              `gorm:"column:delivery_date;not null"`
	Status             enums.SaleStatus       `gorm:"column:status;not null;default:'pending'"`
	TrackingStatus     enums.TrackingStatus   `gorm:"column:tracking_status;not null;default:'scheduled'"`
	DiscountSettlement enums.SettlementStatus `gorm:"column:discount_settlement;not null;default:'none'"`
	CartSettlement     enums.SettlementStatus `gorm:"column:cart_settlement;not null;default:'pending'"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
