package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// Client is a storefront shopper with an address book and promotional-code
// grants.
type Client struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	Email        string          `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Phone        *string         `gorm:"column:phone"`
	AddressBook  []types.Address `gorm:"column:address_book;type:jsonb;serializer:json"`
	CodeGrants   []CodeGrant     `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
