package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rmoralesp/giftshop-backend/pkg/db/models"
	"github.com/rmoralesp/giftshop-backend/pkg/enums"
	"github.com/rmoralesp/giftshop-backend/pkg/logger"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`).Error)
	return db
}

func outboxTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})
}

func TestEmitWrapsPayloadInEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), outboxTestLogger())
	actor := &ActorRef{ClientID: uuid.New()}
	aggregateID := uuid.New()
	occurred := time.Date(2026, 7, 4, 10, 30, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   aggregateID,
			Actor:         actor,
			Data:          map[string]string{"order_id": aggregateID.String()},
			Version:       1,
			OccurredAt:    occurred,
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, enums.EventOrderCreated, row.EventType)
	assert.Equal(t, enums.AggregateSale, row.AggregateType)
	assert.Equal(t, aggregateID, row.AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.True(t, envelope.OccurredAt.Equal(occurred))
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actor.ClientID, envelope.Actor.ClientID)

	var data map[string]string
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, aggregateID.String(), data["order_id"])
}

func TestEmitRequiresTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), outboxTestLogger())

	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateSale,
		AggregateID:   uuid.New(),
		Data:          map[string]string{},
	})
	require.Error(t, err)
}

func TestEmitRollsBackWithSurroundingTx(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), outboxTestLogger())

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   uuid.New(),
			Data:          map[string]string{},
			Version:       1,
		}); err != nil {
			return err
		}
		return errors.New("business write failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func seedEvent(t *testing.T, db *gorm.DB, createdAt time.Time, attemptCount int, published bool) uuid.UUID {
	t.Helper()

	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateSale,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     createdAt,
		AttemptCount:  attemptCount,
	}
	if published {
		now := time.Now().UTC()
		row.PublishedAt = &now
	}
	require.NoError(t, db.Create(&row).Error)
	return row.ID
}

func TestFetchUnpublishedOrdersAndFilters(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	base := time.Now().UTC().Add(-time.Hour)

	second := seedEvent(t, db, base.Add(time.Minute), 0, false)
	first := seedEvent(t, db, base, 0, false)
	seedEvent(t, db, base, 0, true)
	seedEvent(t, db, base, 10, false)

	rows, err := repo.FetchUnpublished(10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first, rows[0].ID)
	assert.Equal(t, second, rows[1].ID)
}

func TestMarkPublishedRemovesFromBacklog(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	id := seedEvent(t, db, time.Now().UTC(), 0, false)

	require.NoError(t, repo.MarkPublished(id))

	rows, err := repo.FetchUnpublished(10, 5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMarkFailedTracksAttempts(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	id := seedEvent(t, db, time.Now().UTC(), 0, false)

	require.NoError(t, repo.MarkFailed(id, errors.New("publish timeout")))
	require.NoError(t, repo.MarkFailed(id, errors.New("publish timeout")))

	var row models.OutboxEvent
	require.NoError(t, db.First(&row, "id = ?", id).Error)
	assert.Equal(t, 2, row.AttemptCount)
	require.NotNil(t, row.LastError)
	assert.Equal(t, "publish timeout", *row.LastError)
	assert.Nil(t, row.PublishedAt)
}
