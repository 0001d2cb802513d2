package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	pkgerrors "github.com/rmoralesp/giftshop-backend/pkg/errors"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

func setupSalesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS sales (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  cart_id TEXT NOT NULL,
  total NUMERIC NOT NULL,
  payment_type TEXT NOT NULL,
  payment_proof_url TEXT,
  receiver_name TEXT NOT NULL,
  receiver_phone TEXT NOT NULL,
  shipping_address TEXT,
  delivery_point TEXT,
  delivery_date DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  tracking_status TEXT NOT NULL DEFAULT 'scheduled',
  discount_settlement TEXT NOT NULL DEFAULT 'none',
  cart_settlement TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func newSale(clientID uuid.UUID, createdAt time.Time) *models.Sale {
	return &models.Sale{
		ID:            uuid.New(),
		ClientID:      clientID,
		CartID:        uuid.New(),
		Total:         decimal.RequireFromString("30.00"),
		PaymentType:   enums.PaymentTypeTransfer,
		ReceiverName:  "Ana Flores",
		ReceiverPhone: "+52 55 1234 5678",
		ShippingAddress: types.Address{
			Line1:      "Av. Reforma 12",
			City:       "CDMX",
			State:      "CDMX",
			PostalCode: "06600",
			Country:    "MX",
		},
		DeliveryDate:       createdAt.AddDate(0, 0, 3),
		Status:             enums.SaleStatusPending,
		TrackingStatus:     enums.TrackingStatusScheduled,
		DiscountSettlement: enums.SettlementStatusNone,
		CartSettlement:     enums.SettlementStatusPending,
		CreatedAt:          createdAt,
	}
}

func TestRepositoryCreateAndFindByID(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	sale := newSale(clientID, time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), sale))

	stored, err := repo.FindByID(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.ClientID, stored.ClientID)
	assert.True(t, stored.Total.Equal(sale.Total))
	assert.Equal(t, "CDMX", stored.ShippingAddress.City)
}

func TestFindByIDAndClientEnforcesOwnership(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)
	owner := uuid.New()

	sale := newSale(owner, time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), sale))

	_, err := repo.FindByIDAndClient(context.Background(), sale.ID, uuid.New())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	stored, err := repo.FindByIDAndClient(context.Background(), sale.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, stored.ID)
}

func TestListByClientNewestFirst(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	older := newSale(clientID, base)
	newer := newSale(clientID, base.Add(30*time.Minute))
	foreign := newSale(uuid.New(), base.Add(time.Minute))
	require.NoError(t, repo.Create(context.Background(), older))
	require.NoError(t, repo.Create(context.Background(), newer))
	require.NoError(t, repo.Create(context.Background(), foreign))

	sales, err := repo.ListByClient(context.Background(), clientID)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, newer.ID, sales[0].ID)
	assert.Equal(t, older.ID, sales[1].ID)
}

func TestUpdateSettlementMovesSingleMarker(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)

	sale := newSale(uuid.New(), time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), sale))

	require.NoError(t, repo.UpdateSettlement(context.Background(), sale.ID, SettlementColumnDiscount, enums.SettlementStatusSettled))

	stored, err := repo.FindByID(context.Background(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.SettlementStatusSettled, stored.DiscountSettlement)
	assert.Equal(t, enums.SettlementStatusPending, stored.CartSettlement)
}

func TestServiceGetSaleProjectsView(t *testing.T) {
	db := setupSalesTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	require.NoError(t, err)

	clientID := uuid.New()
	sale := newSale(clientID, time.Now().UTC())
	require.NoError(t, repo.Create(context.Background(), sale))

	view, err := svc.GetSale(context.Background(), clientID, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, view.ID)
	assert.Equal(t, "transfer", view.PaymentType)
	assert.Equal(t, "pending", view.Status)
	assert.Equal(t, "scheduled", view.TrackingStatus)
}

func TestServiceGetSaleNotFound(t *testing.T) {
	db := setupSalesTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.GetSale(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceGetSaleRequiresIDs(t *testing.T) {
	db := setupSalesTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.GetSale(context.Background(), uuid.Nil, uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceListSalesEmpty(t *testing.T) {
	db := setupSalesTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	views, err := svc.ListSales(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}
