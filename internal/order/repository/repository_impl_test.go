package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/maib-ecomm/maib-gateway/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Order{}, &domain.OrderNote{}, &domain.PaymentEvent{},
	))
	return conn
}

func newTestOrder(id int64) *domain.Order {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Order{
		ID:        snowflake.ID(id),
		Status:    domain.StatusPending,
		Currency:  "MDL",
		Amount:    100.50,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInsertAndFindByID(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newTestOrder(1)
	require.NoError(t, repo.Insert(ctx, nil, order))

	found, err := repo.FindByID(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, domain.StatusPending, found.Status)
	assert.Nil(t, found.PaidAt)
}

func TestFindByIDNotFound(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	_, err := repo.FindByID(context.Background(), nil, snowflake.ID(404))
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSetTransaction(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newTestOrder(2)
	require.NoError(t, repo.Insert(ctx, nil, order))
	require.NoError(t, repo.SetTransaction(ctx, nil, order.ID, "pay-123", domain.TransactionTypeTwoStep))

	found, err := repo.FindByID(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay-123", found.TransactionID)
	assert.Equal(t, domain.TransactionTypeTwoStep, found.TransactionType)
}

func TestMarkPaidExactlyOnce(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newTestOrder(3)
	require.NoError(t, repo.Insert(ctx, nil, order))

	at := time.Now().UTC().Truncate(time.Second)
	first, err := repo.MarkPaid(ctx, nil, order.ID, at)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.MarkPaid(ctx, nil, order.ID, at.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, second, "paid marker must only be set once")

	found, err := repo.FindByID(ctx, nil, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.PaidAt)
	assert.WithinDuration(t, at, *found.PaidAt, time.Second)
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	done, err := repo.MarkPaid(context.Background(), nil, snowflake.ID(404), time.Now())
	require.NoError(t, err)
	assert.False(t, done)
}

func TestUpdateStatus(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newTestOrder(4)
	require.NoError(t, repo.Insert(ctx, nil, order))
	require.NoError(t, repo.UpdateStatus(ctx, nil, order.ID, domain.StatusProcessing))

	found, err := repo.FindByID(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, found.Status)
}

func TestNotesKeepInsertionOrder(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := newTestOrder(5)
	require.NoError(t, repo.Insert(ctx, nil, order))

	base := time.Now().UTC().Truncate(time.Second)
	for i, text := range []string{"first", "second", "third"} {
		require.NoError(t, repo.AddNote(ctx, nil, &domain.OrderNote{
			ID:        snowflake.ID(100 + i),
			OrderID:   order.ID,
			Note:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	notes, err := repo.ListNotes(ctx, nil, order.ID)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "first", notes[0].Note)
	assert.Equal(t, "third", notes[2].Note)
}

func TestRecordAndProcessEvent(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	orderID := snowflake.ID(6)
	event := &domain.PaymentEvent{
		ID:          snowflake.ID(600),
		OrderID:     &orderID,
		PayID:       "pay-600",
		Status:      "OK",
		SignatureOK: true,
		Payload:     []byte(`{"result":{"payId":"pay-600"}}`),
		ReceivedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.RecordEvent(ctx, nil, event))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkEventProcessed(ctx, nil, event.ID, at))

	var stored domain.PaymentEvent
	require.NoError(t, conn.First(&stored, "id = ?", event.ID).Error)
	require.NotNil(t, stored.ProcessedAt)
	assert.True(t, stored.SignatureOK)
}
