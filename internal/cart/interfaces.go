package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// CartRepository is the persistence surface the cart service depends on.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindActiveByClient(ctx context.Context, clientID uuid.UUID) (*models.Cart, error)
	FindOrCreateActive(ctx context.Context, clientID uuid.UUID) (*models.Cart, error)
	FindByIDAndClient(ctx context.Context, id, clientID uuid.UUID) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemRowID uuid.UUID) error
	UpdateTotals(ctx context.Context, cartID uuid.UUID, total decimal.Decimal) error
	UpdateDiscounts(ctx context.Context, cartID uuid.UUID, pending, applied *types.DiscountSnapshot, total decimal.Decimal) error
	Archive(ctx context.Context, cartID uuid.UUID, completedAt time.Time) error
	ListActive(ctx context.Context) ([]models.Cart, error)
}

// PriceResolver looks up the live unit price for a catalog entity. The cart
// never trusts a client supplied price.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, itemType enums.CartItemType, itemID uuid.UUID) (name string, price decimal.Decimal, err error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
