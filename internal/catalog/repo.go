package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
)

// Repository reads catalog entities. The storefront never writes to the
// catalog, the back office owns it.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetProduct returns a catalog product by id.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetCustomProduct returns a client-composed product by id.
func (r *Repository) GetCustomProduct(ctx context.Context, id uuid.UUID) (*models.CustomProduct, error) {
	var custom models.CustomProduct
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&custom).Error; err != nil {
		return nil, err
	}
	return &custom, nil
}

// ResolvePrice returns the live name and price for a cart entity. Catalog
// products use their unit price; custom products carry a precomputed total
// that is treated as the unit price of the line.
func (r *Repository) ResolvePrice(ctx context.Context, itemType enums.CartItemType, itemID uuid.UUID) (string, decimal.Decimal, error) {
	switch itemType {
	case enums.CartItemTypeCustomProduct:
		custom, err := r.GetCustomProduct(ctx, itemID)
		if err != nil {
			return "", decimal.Zero, err
		}
		return custom.Name, custom.TotalPrice, nil
	default:
		product, err := r.GetProduct(ctx, itemID)
		if err != nil {
			return "", decimal.Zero, err
		}
		if !product.IsActive {
			return product.Name, decimal.Zero, nil
		}
		return product.Name, product.Price, nil
	}
}
