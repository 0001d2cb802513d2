package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

// View is the serialized shape of a sale returned to clients. Settlement
// markers are internal bookkeeping and stay out of it.
type View struct {
	ID              uuid.UUID       `json:"id"`
	CartID          uuid.UUID       `json:"cart_id"`
	Total           decimal.Decimal `json:"total"`
	PaymentType     string          `json:"payment_type"`
	PaymentProofURL *string         `json:"payment_proof_url,omitempty"`
	ReceiverName    string          `json:"receiver_name"`
	ReceiverPhone   string          `json:"receiver_phone"`
	ShippingAddress types.Address   `json:"shipping_address"`
	DeliveryPoint   string          `json:"delivery_point,omitempty"`
	DeliveryDate    time.Time       `json:"delivery_date"`
	Status          string          `json:"status"`
	TrackingStatus  string          `json:"tracking_status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewView projects a sale model into its API shape.
func NewView(sale *models.Sale) View {
	return View{
		ID:              sale.ID,
		CartID:          sale.CartID,
		Total:           sale.Total,
		PaymentType:     sale.PaymentType.String(),
		PaymentProofURL: sale.PaymentProofURL,
		ReceiverName:    sale.ReceiverName,
		ReceiverPhone:   sale.ReceiverPhone,
		ShippingAddress: sale.ShippingAddress,
		DeliveryPoint:   sale.DeliveryPoint,
		DeliveryDate:    sale.DeliveryDate,
		Status:          sale.Status.String(),
		TrackingStatus:  sale.TrackingStatus.String(),
		CreatedAt:       sale.CreatedAt,
	}
}

// Service exposes read access to a client's sales. Sales are created by the
// checkout orchestrator, never directly.
type Service interface {
	GetSale(ctx context.Context, clientID, saleID uuid.UUID) (*View, error)
	ListSales(ctx context.Context, clientID uuid.UUID) ([]View, error)
}

type service struct {
	repo SaleRepository
}

// NewService builds a sale read service.
func NewService(repo SaleRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sale repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetSale(ctx context.Context, clientID, saleID uuid.UUID) (*View, error) {
	if clientID == uuid.Nil || saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id and sale id are required")
	}
	sale, err := s.repo.FindByIDAndClient(ctx, saleID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sale")
	}
	view := NewView(sale)
	return &view, nil
}

func (s *service) ListSales(ctx context.Context, clientID uuid.UUID) ([]View, error) {
	if clientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client id is required")
	}
	sales, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sales")
	}
	views := make([]View, 0, len(sales))
	for i := range sales {
		views = append(views, NewView(&sales[i]))
	}
	return views, nil
}
