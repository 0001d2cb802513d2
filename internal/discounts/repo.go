package discounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
)

// GrantRepository is the persistence surface for promotional code grants.
type GrantRepository interface {
	WithTx(tx *gorm.DB) GrantRepository
	FindByClientAndCode(ctx context.Context, clientID uuid.UUID, code string) (*models.CodeGrant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CodeGrant, error)
	MarkUsed(ctx context.Context, grantID, orderID uuid.UUID, at time.Time) (bool, error)
}

// Repository is the GORM-backed grant repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) GrantRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByClientAndCode returns the client's grant for the code.
func (r *Repository) FindByClientAndCode(ctx context.Context, clientID uuid.UUID, code string) (*models.CodeGrant, error) {
	var grant models.CodeGrant
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND code = ?", clientID, code).
		First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// FindByID returns a grant by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CodeGrant, error) {
	var grant models.CodeGrant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&grant).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

// MarkUsed flips an unused grant to used, linking it to the consuming order.
// Returns false when the grant was already used, the guarded update makes the
// flip happen at most once even under concurrent calls.
func (r *Repository) MarkUsed(ctx context.Context, grantID, orderID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CodeGrant{}).
		Where("id = ? AND used = ?", grantID, false).
		Updates(map[string]any{
			"used":          true,
			"used_order_id": orderID,
			"used_at":       at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
