package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/internal/cart"
	"github.com/rmoralesp/giftshop-backend/internal/discounts"
	"github.com/rmoralesp/giftshop-backend/internal/orders"
	"github.com/rmoralesp/giftshop-backend/pkg/config"
	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
	"github.com/rmoralesp/giftshop-backend/pkg/outbox"
	"github.com/rmoralesp/giftshop-backend/pkg/outbox/payloads"
)

const retriesPerCycle = 3

// errStepAbandoned marks a step that can never succeed no matter how often
// it is retried.
var errStepAbandoned = errors.New("reconciliation step abandoned")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Worker drains the reconciliation queue. Each open task names a post-order
// step that failed at checkout time; the worker retries the step with
// exponential backoff and flips the sale's settlement marker once it lands.
type Worker struct {
	tasks     TaskRepository
	discounts discounts.Service
	carts     cart.Service
	sales     orders.SaleRepository
	events    *outbox.Service
	tx        txRunner
	cfg       config.ReconcilerConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewWorker builds a reconciliation worker.
func NewWorker(
	tasks TaskRepository,
	discountSvc discounts.Service,
	cartSvc cart.Service,
	sales orders.SaleRepository,
	events *outbox.Service,
	tx txRunner,
	cfg config.ReconcilerConfig,
	log *logger.Logger,
) (*Worker, error) {
	if tasks == nil {
		return nil, fmt.Errorf("task repository required")
	}
	if discountSvc == nil {
		return nil, fmt.Errorf("discount service required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Worker{
		tasks:     tasks,
		discounts: discountSvc,
		carts:     cartSvc,
		sales:     sales,
		events:    events,
		tx:        tx,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}, nil
}

// Run polls for open tasks until the context ends.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Error(ctx, "reconciliation cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce processes one batch of open tasks.
func (w *Worker) RunOnce(ctx context.Context) error {
	tasks, err := w.tasks.FetchOpen(ctx, w.cfg.BatchSize, w.cfg.MaxAttempts)
	if err != nil {
		return fmt.Errorf("fetch open tasks: %w", err)
	}
	for i := range tasks {
		w.process(ctx, &tasks[i])
	}
	return nil
}

func (w *Worker) process(ctx context.Context, task *models.ReconciliationTask) {
	ctx = w.log.WithOrderID(w.log.WithCartID(ctx, task.CartID.String()), task.SaleID.String())

	backoff := retry.WithMaxRetries(retriesPerCycle, retry.NewExponential(w.cfg.BaseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if stepErr := w.runStep(ctx, task); stepErr != nil {
			if errors.Is(stepErr, errStepAbandoned) {
				return stepErr
			}
			return retry.RetryableError(stepErr)
		}
		return nil
	})
	if errors.Is(err, errStepAbandoned) {
		// Retrying cannot win the step back. Close the task but keep the
		// settlement marker failed so the inconsistency stays visible.
		if resErr := w.tasks.Resolve(ctx, task.ID, w.now().UTC()); resErr != nil {
			w.log.Error(ctx, "task resolution failed", resErr)
			return
		}
		w.markSettlement(ctx, task, enums.SettlementStatusFailed)
		w.log.Warn(ctx, fmt.Sprintf("reconciliation step %s abandoned: %v", task.Step, err))
		return
	}
	if err != nil {
		if recErr := w.tasks.RecordAttempt(ctx, task.ID, err); recErr != nil {
			w.log.Error(ctx, "attempt bookkeeping failed", recErr)
		}
		w.log.Warn(ctx, fmt.Sprintf("reconciliation step %s still failing: %v", task.Step, err))
		return
	}

	if err := w.tasks.Resolve(ctx, task.ID, w.now().UTC()); err != nil {
		w.log.Error(ctx, "task resolution failed", err)
		return
	}
	w.markSettlement(ctx, task, enums.SettlementStatusSettled)
	w.emitRecovered(ctx, task)
	w.log.Info(ctx, fmt.Sprintf("reconciliation step %s settled", task.Step))
}

func (w *Worker) runStep(ctx context.Context, task *models.ReconciliationTask) error {
	switch task.Step {
	case StepConfirmDiscount:
		if err := w.discounts.ConfirmDiscount(ctx, task.ClientID, task.CartID, task.SaleID); err != nil {
			return err
		}
		if task.GrantID != nil {
			if err := w.discounts.MarkCodeUsed(ctx, task.ClientID, *task.GrantID, task.SaleID); err != nil {
				// A conflict here means another order consumed the
				// grant first; retrying will not change that.
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
					return fmt.Errorf("%w: grant consumed by another order", errStepAbandoned)
				}
				return err
			}
		}
		return nil
	case StepArchiveCart:
		_, err := w.carts.ClearAfterPurchase(ctx, task.ClientID, task.CartID)
		return err
	default:
		return fmt.Errorf("unknown reconciliation step %q", task.Step)
	}
}

func (w *Worker) markSettlement(ctx context.Context, task *models.ReconciliationTask, status enums.SettlementStatus) {
	column := orders.SettlementColumnDiscount
	if task.Step == StepArchiveCart {
		column = orders.SettlementColumnCart
	}
	if err := w.sales.UpdateSettlement(ctx, task.SaleID, column, status); err != nil {
		w.log.Error(ctx, "settlement marker update failed", err)
	}
}

func (w *Worker) emitRecovered(ctx context.Context, task *models.ReconciliationTask) {
	err := w.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return w.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderSettlementRecovered,
			AggregateType: enums.AggregateSale,
			AggregateID:   task.SaleID,
			Actor:         &outbox.ActorRef{ClientID: task.ClientID},
			Data: payloads.SettlementRecoveredEvent{
				SaleID:      task.SaleID,
				Step:        task.Step,
				RecoveredAt: w.now().UTC(),
			},
			Version:    1,
			OccurredAt: w.now().UTC(),
		})
	})
	if err != nil {
		w.log.Error(ctx, "settlement recovered event not queued", err)
	}
}
