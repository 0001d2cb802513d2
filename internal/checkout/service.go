package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/internal/cart"
	"github.com/rmoralesp/giftshop-backend/internal/checkout/reconcile"
	"github.com/rmoralesp/giftshop-backend/internal/discounts"
	"github.com/rmoralesp/giftshop-backend/internal/orders"
	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/metrics"
	"github.com/rmoralesp/giftshop-backend/pkg/outbox"
	"github.com/rmoralesp/giftshop-backend/pkg/outbox/payloads"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type proofUploader interface {
	UploadProof(ctx context.Context, saleRef string, contentType string, body io.Reader) (string, error)
}

// Service confirms checkout drafts into sales.
type Service interface {
	Confirm(ctx context.Context, clientID uuid.UUID, input ConfirmInput) (*ConfirmResult, error)
}

type service struct {
	carts     cart.CartRepository
	cartSvc   cart.Service
	discounts discounts.Service
	sales     orders.SaleRepository
	tasks     reconcile.TaskRepository
	events    *outbox.Service
	uploader  proofUploader
	tx        txRunner
	metrics   *metrics.CheckoutMetrics
	log       *logger.Logger
	now       func() time.Time
}

// NewService builds the checkout orchestrator.
func NewService(
	carts cart.CartRepository,
	cartSvc cart.Service,
	discountSvc discounts.Service,
	sales orders.SaleRepository,
	tasks reconcile.TaskRepository,
	events *outbox.Service,
	uploader proofUploader,
	tx txRunner,
	checkoutMetrics *metrics.CheckoutMetrics,
	log *logger.Logger,
) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if discountSvc == nil {
		return nil, fmt.Errorf("discount service required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if tasks == nil {
		return nil, fmt.Errorf("task repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if uploader == nil {
		return nil, fmt.Errorf("proof uploader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		carts:     carts,
		cartSvc:   cartSvc,
		discounts: discountSvc,
		sales:     sales,
		tasks:     tasks,
		events:    events,
		uploader:  uploader,
		tx:        tx,
		metrics:   checkoutMetrics,
		log:       log,
		now:       time.Now,
	}, nil
}

// Confirm turns the active cart plus the submitted draft into a sale. The
// sale creation and its outbox event commit in one transaction; the follow-up
// steps (discount confirmation, code consumption, cart archival) run after
// the commit and are not allowed to fail the request. Their failures are
// recorded on the sale's settlement markers and queued for the reconciler.
func (s *service) Confirm(ctx context.Context, clientID uuid.UUID, input ConfirmInput) (*ConfirmResult, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	if err := ValidateShipping(input.Shipping); err != nil {
		return nil, err
	}
	input.Payment.HasProof = input.Proof != nil && input.Proof.Body != nil
	if err := ValidatePayment(input.Payment); err != nil {
		return nil, err
	}

	active, err := s.carts.FindActiveByClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "no active cart to check out")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active cart")
	}
	if len(active.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cart is empty")
	}

	saleID := uuid.New()
	total := active.Subtotal()
	pending := active.PendingDiscount
	if pending != nil {
		total = total.Sub(pending.Amount)
		if total.IsNegative() {
			total = decimal.Zero
		}
	}

	var proofURL *string
	if input.Payment.Type.RequiresProof() {
		url, upErr := s.uploader.UploadProof(ctx, saleID.String(), input.Proof.ContentType, input.Proof.Body)
		if upErr != nil {
			if s.metrics != nil {
				s.metrics.IncOrderFailure()
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, upErr, "upload payment proof")
		}
		proofURL = &url
	}

	discountSettlement := enums.SettlementStatusNone
	if pending != nil {
		discountSettlement = enums.SettlementStatusPending
	}
	sale := &models.Sale{
		ID:                 saleID,
		ClientID:           clientID,
		CartID:             active.ID,
		Total:              total,
		PaymentType:        input.Payment.Type,
		PaymentProofURL:    proofURL,
		ReceiverName:       input.Shipping.ReceiverName,
		ReceiverPhone:      input.Shipping.ReceiverPhone,
		ShippingAddress:    input.Shipping.Address,
		DeliveryPoint:      input.Shipping.DeliveryPoint,
		DeliveryDate:       input.Shipping.DeliveryDate,
		Status:             enums.SaleStatusPending,
		TrackingStatus:     enums.TrackingStatusScheduled,
		DiscountSettlement: discountSettlement,
		CartSettlement:     enums.SettlementStatusPending,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if txErr := s.sales.WithTx(tx).Create(ctx, sale); txErr != nil {
			return txErr
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   saleID,
			Actor:         &outbox.ActorRef{ClientID: clientID},
			Data: payloads.OrderCreatedEvent{
				SaleID:      saleID,
				CartID:      active.ID,
				ClientID:    clientID,
				Total:       total,
				PaymentType: input.Payment.Type,
			},
			Version:    1,
			OccurredAt: s.now().UTC(),
		})
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncOrderFailure()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sale")
	}
	if s.metrics != nil {
		s.metrics.IncOrderCreated()
	}

	ctx = s.log.WithOrderID(s.log.WithCartID(ctx, active.ID.String()), saleID.String())
	s.log.Info(ctx, "order created")

	nextCartID := s.settle(ctx, sale, active, pending)

	result := &ConfirmResult{Order: orders.NewView(sale)}
	if nextCartID != uuid.Nil {
		result.NextCartID = nextCartID.String()
	}
	return result, nil
}

// settle runs the post-order steps. Errors are aggregated and logged; the
// order already stands, so nothing here can surface to the buyer.
func (s *service) settle(ctx context.Context, sale *models.Sale, active *models.Cart, pending *types.DiscountSnapshot) uuid.UUID {
	var settleErr error

	if pending != nil {
		if err := s.settleDiscount(ctx, sale, active, pending); err != nil {
			settleErr = multierr.Append(settleErr, err)
			s.recordFailure(ctx, sale, orders.SettlementColumnDiscount, reconcile.StepConfirmDiscount, &pending.GrantID, err)
		} else {
			s.markSettled(ctx, sale.ID, orders.SettlementColumnDiscount)
		}
	}

	nextCartID, err := s.cartSvc.ClearAfterPurchase(ctx, sale.ClientID, sale.CartID)
	if err != nil {
		settleErr = multierr.Append(settleErr, err)
		s.recordFailure(ctx, sale, orders.SettlementColumnCart, reconcile.StepArchiveCart, nil, err)
	} else {
		s.markSettled(ctx, sale.ID, orders.SettlementColumnCart)
		s.emitCartArchived(ctx, sale, nextCartID)
	}

	if settleErr != nil {
		s.log.Error(ctx, "post-order settlement incomplete", settleErr)
	}
	return nextCartID
}

func (s *service) settleDiscount(ctx context.Context, sale *models.Sale, active *models.Cart, pending *types.DiscountSnapshot) error {
	if err := s.discounts.ConfirmDiscount(ctx, sale.ClientID, active.ID, sale.ID); err != nil {
		return fmt.Errorf("confirm discount: %w", err)
	}
	if err := s.discounts.MarkCodeUsed(ctx, sale.ClientID, pending.GrantID, sale.ID); err != nil {
		return fmt.Errorf("mark code used: %w", err)
	}
	emitErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDiscountConfirmed,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         &outbox.ActorRef{ClientID: sale.ClientID},
			Data: payloads.DiscountConfirmedEvent{
				SaleID:  sale.ID,
				CartID:  active.ID,
				GrantID: pending.GrantID,
				Amount:  pending.Amount,
			},
			Version:    1,
			OccurredAt: s.now().UTC(),
		})
	})
	if emitErr != nil {
		s.log.Error(ctx, "discount confirmed event not queued", emitErr)
	}
	return nil
}

func (s *service) emitCartArchived(ctx context.Context, sale *models.Sale, nextCartID uuid.UUID) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartArchived,
			AggregateType: enums.AggregateCart,
			AggregateID:   sale.CartID,
			Actor:         &outbox.ActorRef{ClientID: sale.ClientID},
			Data: payloads.CartArchivedEvent{
				CartID:    sale.CartID,
				ClientID:  sale.ClientID,
				NewCartID: nextCartID,
			},
			Version:    1,
			OccurredAt: s.now().UTC(),
		})
	})
	if err != nil {
		s.log.Error(ctx, "cart archived event not queued", err)
	}
}

func (s *service) markSettled(ctx context.Context, saleID uuid.UUID, column string) {
	if err := s.sales.UpdateSettlement(ctx, saleID, column, enums.SettlementStatusSettled); err != nil {
		s.log.Error(ctx, "settlement marker update failed", err)
	}
}

func (s *service) recordFailure(ctx context.Context, sale *models.Sale, column, step string, grantID *uuid.UUID, cause error) {
	if s.metrics != nil {
		s.metrics.IncSettlementError(step)
	}
	if err := s.sales.UpdateSettlement(ctx, sale.ID, column, enums.SettlementStatusFailed); err != nil {
		s.log.Error(ctx, "settlement marker update failed", err)
	}
	task := &models.ReconciliationTask{
		SaleID:   sale.ID,
		CartID:   sale.CartID,
		ClientID: sale.ClientID,
		Step:     step,
		GrantID:  grantID,
	}
	msg := cause.Error()
	task.LastError = &msg
	if err := s.tasks.Enqueue(ctx, task); err != nil {
		s.log.Error(ctx, "reconciliation task not queued", err)
	}
}
