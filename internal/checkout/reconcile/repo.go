package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
)

// Step names for reconciliation tasks.
const (
	StepConfirmDiscount = "confirm_discount"
	StepArchiveCart     = "archive_cart"
)

// TaskRepository is the persistence surface for reconciliation tasks.
type TaskRepository interface {
	WithTx(tx *gorm.DB) TaskRepository
	Enqueue(ctx context.Context, task *models.ReconciliationTask) error
	FetchOpen(ctx context.Context, limit, maxAttempts int) ([]models.ReconciliationTask, error)
	RecordAttempt(ctx context.Context, taskID uuid.UUID, attemptErr error) error
	Resolve(ctx context.Context, taskID uuid.UUID, at time.Time) error
}

// Repository is the GORM-backed task repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) TaskRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Enqueue inserts a new open task.
func (r *Repository) Enqueue(ctx context.Context, task *models.ReconciliationTask) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(task).Error
}

// FetchOpen returns unresolved tasks that still have attempt budget, oldest
// first.
func (r *Repository) FetchOpen(ctx context.Context, limit, maxAttempts int) ([]models.ReconciliationTask, error) {
	var tasks []models.ReconciliationTask
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

// RecordAttempt bumps the attempt counter and stores the latest failure.
func (r *Repository) RecordAttempt(ctx context.Context, taskID uuid.UUID, attemptErr error) error {
	updates := map[string]any{
		"attempt_count": gorm.Expr("attempt_count + 1"),
	}
	if attemptErr != nil {
		msg := attemptErr.Error()
		updates["last_error"] = msg
	}
	return r.db.WithContext(ctx).
		Model(&models.ReconciliationTask{}).
		Where("id = ?", taskID).
		Updates(updates).Error
}

// Resolve closes the task.
func (r *Repository) Resolve(ctx context.Context, taskID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ReconciliationTask{}).
		Where("id = ? AND resolved_at IS NULL", taskID).
		Updates(map[string]any{
			"resolved_at": at,
			"last_error":  nil,
		}).Error
}
