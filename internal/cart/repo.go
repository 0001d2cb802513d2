package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// Repository encapsulates cart persistence. It carries no business rules.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActiveByClient returns the latest active cart for the client.
func (r *Repository) FindActiveByClient(ctx context.Context, clientID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("client_id = ? AND status = ?", clientID, enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindOrCreateActive returns the client's active cart, inserting an empty one
// when none exists. The unique index on active_marker turns the insert into a
// conflict when a concurrent call won the race, in which case the winner's
// cart is re-read and returned.
func (r *Repository) FindOrCreateActive(ctx context.Context, clientID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindActiveByClient(ctx, clientID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	marker := clientID.String()
	fresh := &models.Cart{
		ID:           uuid.New(),
		ClientID:     clientID,
		Status:       enums.CartStatusActive,
		ActiveMarker: &marker,
		Total:        decimal.Zero,
	}
	// ON CONFLICT keeps a concurrent loser from aborting the surrounding
	// transaction; the winner's cart is re-read instead.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fresh)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return r.FindActiveByClient(ctx, clientID)
	}
	fresh.Items = []models.CartItem{}
	return fresh, nil
}

// FindByIDAndClient returns the cart only when it belongs to the client.
func (r *Repository) FindByIDAndClient(ctx context.Context, id, clientID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND client_id = ?", id, clientID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByID returns the cart regardless of owner.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// SaveItem inserts or updates a single cart item.
func (r *Repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteItem removes a single item row.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemRowID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, itemRowID).
		Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateTotals persists the recomputed total for the cart.
func (r *Repository) UpdateTotals(ctx context.Context, cartID uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("total", total).Error
}

// UpdateDiscounts persists the discount snapshots and the total together.
func (r *Repository) UpdateDiscounts(ctx context.Context, cartID uuid.UUID, pending, applied *types.DiscountSnapshot, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"pending_discount": jsonColumn(pending),
			"applied_discount": jsonColumn(applied),
			"total":            total,
		}).Error
}

// Archive flips the cart to completed, clearing the active marker so a new
// active cart can be opened for the client.
func (r *Repository) Archive(ctx context.Context, cartID uuid.UUID, completedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Updates(map[string]any{
			"status":        enums.CartStatusCompleted,
			"active_marker": nil,
			"completed_at":  completedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActive returns every active cart, newest first per client.
func (r *Repository) ListActive(ctx context.Context) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.CartStatusActive).
		Order("client_id ASC").
		Order("created_at DESC").
		Find(&carts).Error
	return carts, err
}

func jsonColumn(snapshot *types.DiscountSnapshot) any {
	if snapshot == nil {
		return nil
	}
	return snapshot
}
