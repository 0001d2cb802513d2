package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
)

const maxLineQuantity = 99

// Service exposes the cart lifecycle operations.
type Service interface {
	GetActiveCart(ctx context.Context, clientID uuid.UUID) (*View, error)
	AddItem(ctx context.Context, clientID uuid.UUID, input AddItemInput) (*View, error)
	UpdateItemQuantity(ctx context.Context, clientID, itemRowID uuid.UUID, input UpdateQuantityInput) (*View, error)
	RemoveItem(ctx context.Context, clientID, itemRowID uuid.UUID) (*View, error)
	ClearAfterPurchase(ctx context.Context, clientID, cartID uuid.UUID) (uuid.UUID, error)
	CleanupDuplicateCarts(ctx context.Context) (*CleanupReport, error)
}

type service struct {
	repo   CartRepository
	tx     txRunner
	prices PriceResolver
	log    *logger.Logger
	now    func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, prices PriceResolver, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if prices == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		prices: prices,
		log:    log,
		now:    time.Now,
	}, nil
}

// GetActiveCart returns the client's active cart, creating an empty one when
// none exists yet.
func (s *service) GetActiveCart(ctx context.Context, clientID uuid.UUID) (*View, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	cart, err := s.repo.FindOrCreateActive(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active cart")
	}
	view := NewView(cart)
	return &view, nil
}

// AddItem adds a catalog entity to the active cart, merging quantities when
// the entity already has a line. Merged lines are re-priced from the live
// catalog so a stale snapshot does not survive the merge.
func (s *service) AddItem(ctx context.Context, clientID uuid.UUID, input AddItemInput) (*View, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	itemType, err := input.parsedType()
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_type must be product or custom_product")
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}
	if input.Quantity < 1 || input.Quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxLineQuantity))
	}

	_, price, err := s.prices.ResolvePrice(ctx, itemType, input.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve item price")
	}
	if !price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "item is not purchasable")
	}

	var updated *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, txErr := repo.FindOrCreateActive(ctx, clientID)
		if txErr != nil {
			return txErr
		}

		line := findLine(cart, itemType, input.ItemID)
		if line != nil {
			qty := line.Quantity + input.Quantity
			if qty > maxLineQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("line quantity cannot exceed %d", maxLineQuantity))
			}
			line.Quantity = qty
			line.UnitPrice = price
			line.Subtotal = price.Mul(decimal.NewFromInt(int64(qty)))
			if txErr = repo.SaveItem(ctx, line); txErr != nil {
				return txErr
			}
		} else {
			fresh := models.CartItem{
				ID:        uuid.New(),
				CartID:    cart.ID,
				ItemType:  itemType,
				ItemID:    input.ItemID,
				Quantity:  input.Quantity,
				UnitPrice: price,
				Subtotal:  price.Mul(decimal.NewFromInt(int64(input.Quantity))),
			}
			if txErr = repo.SaveItem(ctx, &fresh); txErr != nil {
				return txErr
			}
			cart.Items = append(cart.Items, fresh)
		}

		updated, txErr = s.persistTotals(ctx, repo, cart.ID)
		return txErr
	})
	if err != nil {
		return nil, wrapCartErr(err, "add cart item")
	}

	ctx = s.log.WithCartID(ctx, updated.ID.String())
	s.log.Info(ctx, "cart item added")
	view := NewView(updated)
	return &view, nil
}

// UpdateItemQuantity sets the quantity of an existing line. The price snapshot
// taken when the line was added is preserved.
func (s *service) UpdateItemQuantity(ctx context.Context, clientID, itemRowID uuid.UUID, input UpdateQuantityInput) (*View, error) {
	if clientID == uuid.Nil || itemRowID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id and item id are required")
	}
	if input.Quantity < 1 || input.Quantity > maxLineQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between 1 and %d", maxLineQuantity))
	}

	var updated *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, txErr := repo.FindActiveByClient(ctx, clientID)
		if txErr != nil {
			return txErr
		}
		line := findLineByRowID(cart, itemRowID)
		if line == nil {
			return gorm.ErrRecordNotFound
		}
		line.Quantity = input.Quantity
		line.Subtotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
		if txErr = repo.SaveItem(ctx, line); txErr != nil {
			return txErr
		}
		updated, txErr = s.persistTotals(ctx, repo, cart.ID)
		return txErr
	})
	if err != nil {
		return nil, wrapCartErr(err, "update cart item quantity")
	}
	view := NewView(updated)
	return &view, nil
}

// RemoveItem deletes a line from the active cart.
func (s *service) RemoveItem(ctx context.Context, clientID, itemRowID uuid.UUID) (*View, error) {
	if clientID == uuid.Nil || itemRowID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id and item id are required")
	}

	var updated *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, txErr := repo.FindActiveByClient(ctx, clientID)
		if txErr != nil {
			return txErr
		}
		if txErr = repo.DeleteItem(ctx, cart.ID, itemRowID); txErr != nil {
			return txErr
		}
		updated, txErr = s.persistTotals(ctx, repo, cart.ID)
		return txErr
	})
	if err != nil {
		return nil, wrapCartErr(err, "remove cart item")
	}
	view := NewView(updated)
	return &view, nil
}

// ClearAfterPurchase archives the cart once its purchase has completed and
// opens a fresh active cart in the same transaction. The cart must belong to
// the caller. When a racing request already opened a new active cart that one
// is reused, and archiving an already completed cart is a no-op so retries
// stay safe. Returns the id of the active cart left behind.
func (s *service) ClearAfterPurchase(ctx context.Context, clientID, cartID uuid.UUID) (uuid.UUID, error) {
	if clientID == uuid.Nil || cartID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "client id and cart id are required")
	}

	var nextCartID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, txErr := repo.FindByIDAndClient(ctx, cartID, clientID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return txErr
		}
		if cart.Status == enums.CartStatusActive {
			if txErr = repo.Archive(ctx, cartID, s.now().UTC()); txErr != nil && !errors.Is(txErr, gorm.ErrRecordNotFound) {
				return txErr
			}
		}
		next, txErr := repo.FindOrCreateActive(ctx, clientID)
		if txErr != nil {
			return txErr
		}
		nextCartID = next.ID
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return uuid.Nil, typed
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archive cart")
	}

	ctx = s.log.WithCartID(ctx, cartID.String())
	s.log.Info(ctx, "cart archived after purchase")
	return nextCartID, nil
}

// CleanupDuplicateCarts archives every active cart except the most recent one
// per client. Duplicates can only appear through historic data or manual
// writes, the unique active marker blocks new ones.
func (s *service) CleanupDuplicateCarts(ctx context.Context) (*CleanupReport, error) {
	carts, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active carts")
	}

	report := &CleanupReport{}
	seen := map[uuid.UUID]bool{}
	flagged := map[uuid.UUID]bool{}
	for _, cart := range carts {
		if !seen[cart.ClientID] {
			// ListActive orders newest first within each client.
			seen[cart.ClientID] = true
			continue
		}
		if err := s.repo.Archive(ctx, cart.ID, s.now().UTC()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archive duplicate cart")
		}
		report.CartsArchived++
		if !flagged[cart.ClientID] {
			flagged[cart.ClientID] = true
			report.ClientsAffected++
		}
	}
	if report.CartsArchived > 0 {
		s.log.Warn(ctx, fmt.Sprintf("archived %d duplicate carts across %d clients", report.CartsArchived, report.ClientsAffected))
	}
	return report, nil
}

// persistTotals re-reads the cart and writes the recomputed total. The
// discount snapshots themselves are frozen at apply time; only the total
// moves with the lines.
func (s *service) persistTotals(ctx context.Context, repo CartRepository, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	total := cart.Subtotal()
	if cart.AppliedDiscount != nil {
		total = total.Sub(cart.AppliedDiscount.Amount)
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	if err := repo.UpdateTotals(ctx, cartID, total); err != nil {
		return nil, err
	}
	cart.Total = total
	return cart, nil
}

func findLine(cart *models.Cart, itemType enums.CartItemType, itemID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ItemType == itemType && cart.Items[i].ItemID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

func findLineByRowID(cart *models.Cart, rowID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == rowID {
			return &cart.Items[i]
		}
	}
	return nil
}

func wrapCartErr(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
