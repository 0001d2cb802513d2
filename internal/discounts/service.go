package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/internal/cart"
	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SaleFinder resolves the order a discount confirmation refers to.
type SaleFinder interface {
	FindByIDAndClient(ctx context.Context, id, clientID uuid.UUID) (*models.Sale, error)
}

// Service attaches, detaches and confirms promotional codes on carts.
type Service interface {
	ApplyPending(ctx context.Context, clientID, cartID uuid.UUID, code string) (*cart.View, error)
	RemovePending(ctx context.Context, clientID, cartID uuid.UUID) (*cart.View, error)
	ConfirmDiscount(ctx context.Context, clientID, cartID, orderID uuid.UUID) error
	MarkCodeUsed(ctx context.Context, clientID, grantID, orderID uuid.UUID) error
}

type service struct {
	grants GrantRepository
	carts  cart.CartRepository
	sales  SaleFinder
	tx     txRunner
	log    *logger.Logger
	now    func() time.Time
}

// NewService builds a discount service backed by the provided stack.
func NewService(grants GrantRepository, carts cart.CartRepository, sales SaleFinder, tx txRunner, log *logger.Logger) (Service, error) {
	if grants == nil {
		return nil, fmt.Errorf("grant repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sale finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		grants: grants,
		carts:  carts,
		sales:  sales,
		tx:     tx,
		log:    log,
		now:    time.Now,
	}, nil
}

// ApplyPending snapshots an unused grant into the cart's pending discount.
// The amount is computed once against the current subtotal and the total is
// left untouched until the discount is confirmed at checkout.
func (s *service) ApplyPending(ctx context.Context, clientID, cartID uuid.UUID, code string) (*cart.View, error) {
	code = strings.TrimSpace(code)
	if clientID == uuid.Nil || cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id and cart id are required")
	}
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	var updated *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		current, txErr := carts.FindByIDAndClient(ctx, cartID, clientID)
		if txErr != nil {
			return txErr
		}
		if current.Status != enums.CartStatusActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart is no longer active")
		}

		grant, txErr := s.grants.WithTx(tx).FindByClientAndCode(ctx, clientID, code)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "code not granted to this client")
			}
			return txErr
		}
		if grant.Used {
			return pkgerrors.New(pkgerrors.CodeConflict, "code already used")
		}

		subtotal := current.Subtotal()
		amount := subtotal.
			Mul(decimal.NewFromInt(int64(grant.Percentage))).
			Div(decimal.NewFromInt(100)).
			Round(2)

		pending := &types.DiscountSnapshot{
			GrantID:    grant.ID,
			Code:       grant.Code,
			Percentage: grant.Percentage,
			Amount:     amount,
			Color:      grant.Color,
		}
		if txErr = carts.UpdateDiscounts(ctx, cartID, pending, current.AppliedDiscount, current.Total); txErr != nil {
			return txErr
		}
		current.PendingDiscount = pending
		updated = current
		return nil
	})
	if err != nil {
		return nil, wrapDiscountErr(err, "apply pending discount")
	}

	ctx = s.log.WithCartID(ctx, cartID.String())
	s.log.Info(ctx, "pending discount attached")
	view := cart.NewView(updated)
	return &view, nil
}

// RemovePending detaches the pending discount from the cart.
func (s *service) RemovePending(ctx context.Context, clientID, cartID uuid.UUID) (*cart.View, error) {
	if clientID == uuid.Nil || cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id and cart id are required")
	}

	var updated *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		current, txErr := carts.FindByIDAndClient(ctx, cartID, clientID)
		if txErr != nil {
			return txErr
		}
		if current.PendingDiscount == nil {
			updated = current
			return nil
		}
		if txErr = carts.UpdateDiscounts(ctx, cartID, nil, current.AppliedDiscount, current.Total); txErr != nil {
			return txErr
		}
		current.PendingDiscount = nil
		updated = current
		return nil
	})
	if err != nil {
		return nil, wrapDiscountErr(err, "remove pending discount")
	}
	view := cart.NewView(updated)
	return &view, nil
}

// ConfirmDiscount promotes the pending discount to applied and recomputes the
// persisted total. Confirming a cart without a pending discount is a no-op.
func (s *service) ConfirmDiscount(ctx context.Context, clientID, cartID, orderID uuid.UUID) error {
	if clientID == uuid.Nil || cartID == uuid.Nil || orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client id, cart id and order id are required")
	}

	// An applied discount must be backed by a real order for this cart.
	sale, err := s.sales.FindByIDAndClient(ctx, orderID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if sale.CartID != cartID {
		return pkgerrors.New(pkgerrors.CodeConflict, "order does not reference this cart")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		current, txErr := carts.FindByIDAndClient(ctx, cartID, clientID)
		if txErr != nil {
			return txErr
		}
		if current.PendingDiscount == nil {
			return nil
		}

		applied := current.PendingDiscount
		total := current.Subtotal().Sub(applied.Amount)
		if total.IsNegative() {
			total = decimal.Zero
		}
		return carts.UpdateDiscounts(ctx, cartID, nil, applied, total)
	})
	if err != nil {
		return wrapDiscountErr(err, "confirm discount")
	}

	ctx = s.log.WithOrderID(s.log.WithCartID(ctx, cartID.String()), orderID.String())
	s.log.Info(ctx, "discount confirmed")
	return nil
}

// MarkCodeUsed consumes the grant for the given order. A grant that was
// already consumed yields a conflict.
func (s *service) MarkCodeUsed(ctx context.Context, clientID, grantID, orderID uuid.UUID) error {
	if clientID == uuid.Nil || grantID == uuid.Nil || orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "client id, grant id and order id are required")
	}

	grant, err := s.grants.FindByID(ctx, grantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "grant not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load grant")
	}
	if grant.ClientID != clientID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "grant belongs to another client")
	}

	flipped, err := s.grants.MarkUsed(ctx, grantID, orderID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark grant used")
	}
	if !flipped {
		// Re-read so a retry of the same order stays idempotent.
		current, readErr := s.grants.FindByID(ctx, grantID)
		if readErr == nil && current.UsedOrderID != nil && *current.UsedOrderID == orderID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "code already used")
	}

	ctx = s.log.WithOrderID(s.log.WithClientID(ctx, clientID.String()), orderID.String())
	s.log.Info(ctx, "promotional code consumed")
	return nil
}

func wrapDiscountErr(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
