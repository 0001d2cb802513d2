package cart

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

	dbpkg "github.com/rmoralesp/giftshop-backend/pkg/db"
	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	"github.com/rmoralesp/giftshop-backend/pkg/types"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  client_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  active_marker TEXT,
  total NUMERIC NOT NULL DEFAULT 0,
  pending_discount TEXT,
  applied_discount TEXT,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  item_type TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  subtotal NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_active_marker ON carts (active_marker);`).Error)
	require.NoError(t, db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_entity ON cart_items (cart_id, item_type, item_id);`).Error)
	return db
}

func TestFindOrCreateActiveReturnsSameCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	first, err := repo.FindOrCreateActive(context.Background(), clientID)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, enums.CartStatusActive, first.Status)
	assert.Empty(t, first.Items)

	second, err := repo.FindOrCreateActive(context.Background(), clientID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestActiveMarkerBlocksSecondActiveCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	_, err := repo.FindOrCreateActive(context.Background(), clientID)
	require.NoError(t, err)

	marker := clientID.String()
	dup := &models.Cart{
		ID:           uuid.New(),
		ClientID:     clientID,
		Status:       enums.CartStatusActive,
		ActiveMarker: &marker,
		Total:        decimal.Zero,
	}
	err = db.Create(dup).Error
	require.Error(t, err)
	assert.True(t, dbpkg.IsUniqueViolation(err, "idx_carts_active_marker"))
}

func TestFindOrCreateActiveLosesInsertRaceInsideTransaction(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()
	winnerID := uuid.New()

	var raced bool
	err := db.Transaction(func(tx *gorm.DB) error {
		// claim the marker between the repo's miss and its insert, the
		// way a concurrent request would
		require.NoError(t, db.Callback().Create().Before("gorm:create").Register("claim_marker_first", func(d *gorm.DB) {
			if raced || d.Statement.Table != "carts" {
				return
			}
			raced = true
			require.NoError(t, tx.Exec(
				`INSERT INTO carts (id, client_id, status, active_marker, total) VALUES (?, ?, 'active', ?, 0)`,
				winnerID, clientID, clientID.String(),
			).Error)
		}))

		got, txErr := repo.WithTx(tx).FindOrCreateActive(context.Background(), clientID)
		if txErr != nil {
			return txErr
		}
		assert.Equal(t, winnerID, got.ID)
		// the transaction survives the lost insert
		return tx.Exec("SELECT 1").Error
	})
	require.NoError(t, err)
	require.True(t, raced)
	require.NoError(t, db.Callback().Create().Remove("claim_marker_first"))
}

func TestArchiveClearsMarkerAndAllowsReopen(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	cart, err := repo.FindOrCreateActive(context.Background(), clientID)
	require.NoError(t, err)

	completedAt := time.Now().UTC()
	require.NoError(t, repo.Archive(context.Background(), cart.ID, completedAt))

	archived, err := repo.FindByID(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.CartStatusCompleted, archived.Status)
	assert.Nil(t, archived.ActiveMarker)
	require.NotNil(t, archived.CompletedAt)

	next, err := repo.FindOrCreateActive(context.Background(), clientID)
	require.NoError(t, err)
	assert.NotEqual(t, cart.ID, next.ID)
}

func TestArchiveCompletedCartReturnsNotFound(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	cart, err := repo.FindOrCreateActive(context.Background(), clientID)
	require.NoError(t, err)
	require.NoError(t, repo.Archive(context.Background(), cart.ID, time.Now().UTC()))

	err = repo.Archive(context.Background(), cart.ID, time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteItemMissingRowReturnsNotFound(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	cart, err := repo.FindOrCreateActive(context.Background(), clientID)
	require.NoError(t, err)

	err = repo.DeleteItem(context.Background(), cart.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateDiscountsRoundTripsSnapshots(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	cart, err := repo.FindOrCreateActive(context.Background(), clientID)
	require.NoError(t, err)

	pending := &types.DiscountSnapshot{
		GrantID:    uuid.New(),
		Code:       "WELCOME10",
		Percentage: 10,
		Amount:     decimal.RequireFromString("4.20"),
	}
	total := decimal.RequireFromString("42.00")
	require.NoError(t, repo.UpdateDiscounts(context.Background(), cart.ID, pending, nil, total))

	stored, err := repo.FindByID(context.Background(), cart.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PendingDiscount)
	assert.Nil(t, stored.AppliedDiscount)
	assert.Equal(t, pending.GrantID, stored.PendingDiscount.GrantID)
	assert.Equal(t, "WELCOME10", stored.PendingDiscount.Code)
	assert.True(t, stored.PendingDiscount.Amount.Equal(pending.Amount))
	assert.True(t, stored.Total.Equal(total))

	require.NoError(t, repo.UpdateDiscounts(context.Background(), cart.ID, nil, pending, decimal.RequireFromString("37.80")))
	stored, err = repo.FindByID(context.Background(), cart.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PendingDiscount)
	require.NotNil(t, stored.AppliedDiscount)
	assert.Equal(t, pending.GrantID, stored.AppliedDiscount.GrantID)
}

func TestListActiveOrdersNewestFirstPerClient(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	clientID := uuid.New()

	older := &models.Cart{
		ID:        uuid.New(),
		ClientID:  clientID,
		Status:    enums.CartStatusActive,
		Total:     decimal.Zero,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := &models.Cart{
		ID:        uuid.New(),
		ClientID:  clientID,
		Status:    enums.CartStatusActive,
		Total:     decimal.Zero,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(newer).Error)

	carts, err := repo.ListActive(context.Background())
	require.NoError(t, err)

	var mine []models.Cart
	for _, c := range carts {
		if c.ClientID == clientID {
			mine = append(mine, c)
		}
	}
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
	assert.Equal(t, older.ID, mine[1].ID)
}
