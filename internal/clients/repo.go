package clients

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
)

// ClientRepository is the persistence surface for shoppers.
type ClientRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Client, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
}

// Repository is the GORM-backed client repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByEmail returns the client with the given email, matched
// case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// FindByID returns the client by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// Create inserts a new client.
func (r *Repository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(client).Error
}
