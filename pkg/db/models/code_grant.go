package models

import (
	"time"

	"github.com/google/uuid"
)

// CodeGrant is a client's entitlement to use a promotional code once. A grant
// flips to used at most once, linked to the order that consumed it.
type CodeGrant struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID    uuid.UUID  `gorm:"column:client_id;type:uuid;not null;uniqueIndex:idx_code_grants_client_code"`
	Code        string     `gorm:"column:code;not null;uniqueIndex:idx_code_grants_client_code"`
	Percentage  int        `gorm:"column:percentage;not null"`
	Color       string     `gorm:"column:color"`
	Used        bool       `gorm:"column:used;not null;default:false"`
	UsedOrderID *uuid.UUID `gorm:"column:used_order_id;type:uuid"`
	UsedAt      *time.Time `gorm:"column:used_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
