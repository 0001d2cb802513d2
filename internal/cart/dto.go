package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// AddItemInput carries a request to add a catalog entity to the active cart.
type AddItemInput struct {
	ItemType string    `json:"item_type" validate:"required,oneof=product custom_product"`
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1,max=99"`
}

// UpdateQuantityInput carries a line quantity change.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=99"`
}

// ItemView is the serialized shape of a single cart line.
type ItemView struct {
	ID        uuid.UUID       `json:"id"`
	ItemType  string          `json:"item_type"`
	ItemID    uuid.UUID       `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// View is the serialized shape of a cart returned to clients.
type View struct {
	ID              uuid.UUID               `json:"id"`
	Status          string                  `json:"status"`
	Items           []ItemView              `json:"items"`
	Subtotal        decimal.Decimal         `json:"subtotal"`
	PendingDiscount *types.DiscountSnapshot `json:"pending_discount,omitempty"`
	AppliedDiscount *types.DiscountSnapshot `json:"applied_discount,omitempty"`
	Total           decimal.Decimal         `json:"total"`
	CompletedAt     *time.Time              `json:"completed_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// NewView projects a cart model into its API shape.
func NewView(cart *models.Cart) View {
	items := make([]ItemView, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, ItemView{
			ID:        item.ID,
			ItemType:  item.ItemType.String(),
			ItemID:    item.ItemID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return View{
		ID:              cart.ID,
		Status:          cart.Status.String(),
		Items:           items,
		Subtotal:        cart.Subtotal(),
		PendingDiscount: cart.PendingDiscount,
		AppliedDiscount: cart.AppliedDiscount,
		Total:           cart.Total,
		CompletedAt:     cart.CompletedAt,
		CreatedAt:       cart.CreatedAt,
		UpdatedAt:       cart.UpdatedAt,
	}
}

// CleanupReport summarizes a duplicate-cart sweep.
type CleanupReport struct {
	ClientsAffected int `json:"clients_affected"`
	CartsArchived   int `json:"carts_archived"`
}

func (i AddItemInput) parsedType() (enums.CartItemType, error) {
	return enums.ParseCartItemType(i.ItemType)
}
