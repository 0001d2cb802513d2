package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
)

// SaleRepository is the persistence surface for sales.
type SaleRepository interface {
	WithTx(tx *gorm.DB) SaleRepository
	Create(ctx context.Context, sale *models.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	FindByIDAndClient(ctx context.Context, id, clientID uuid.UUID) (*models.Sale, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Sale, error)
	UpdateSettlement(ctx context.Context, saleID uuid.UUID, column string, status enums.SettlementStatus) error
}

// Settlement marker columns on sales.
const (
	SettlementColumnDiscount = "discount_settlement"
	SettlementColumnCart     = "cart_settlement"
)

// Repository is the GORM-backed sale repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) SaleRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new sale.
func (r *Repository) Create(ctx context.Context, sale *models.Sale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// FindByID returns the sale by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sale).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// FindByIDAndClient returns the sale only when it belongs to the client.
func (r *Repository) FindByIDAndClient(ctx context.Context, id, clientID uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Where("id = ? AND client_id = ?", id, clientID).
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListByClient returns the client's sales, newest first.
func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Sale, error) {
	var sales []models.Sale
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}

// UpdateSettlement moves one settlement marker.
func (r *Repository) UpdateSettlement(ctx context.Context, saleID uuid.UUID, column string, status enums.SettlementStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Where("id = ?", saleID).
		Update(column, status).Error
}
