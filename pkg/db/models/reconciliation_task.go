package models

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationTask queues a post-order step that failed after the order was
// durably created. The reconciler retries the step until it succeeds or the
// attempt budget runs out; the order itself is never rolled back.
type ReconciliationTask struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID       uuid.UUID  `gorm:"column:sale_id;type:uuid;not null;index"`
	CartID       uuid.UUID  `gorm:"column:cart_id;type:uuid;not null"`
	ClientID     uuid.UUID  `gorm:"column:client_id;type:uuid;not null"`
	Step         string     `gorm:"column:step;not null"`
	GrantID      *uuid.UUID `gorm:"column:grant_id;type:uuid"`
	AttemptCount int        `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string    `gorm:"column:last_error"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
