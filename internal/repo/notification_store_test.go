package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paysync-server/internal/models"
)

func newTestStore(t *testing.T) (*NotificationStore, *gorm.DB) {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "notifications.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&models.PaymentNotification{}))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return NewNotificationStore(gormDB, 5*time.Second), gormDB
}

func notification(id string, day int, clock string) models.PaymentNotification {
	return models.PaymentNotification{
		Date:          time.Date(2024, 5, day, 0, 0, 0, 0, time.UTC),
		Time:          clock,
		TransactionID: id,
		Status:        models.StatusSuccess,
		Amount:        decimal.RequireFromString("10.50"),
		CurrencyCode:  "USD",
		PaymentMethod: "PayPal Balance",
		Bank:          "PayPal",
	}
}

func transactionIDs(items []models.PaymentNotification) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.TransactionID)
	}
	return ids
}

func TestSaveNew_InsertsAndOrdersNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	res, err := store.SaveNew(ctx, []models.PaymentNotification{
		notification("A", 1, "09:00:00"),
		notification("B", 3, "08:00:00"),
		notification("C", 3, "17:30:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, []string{"C", "B", "A"}, transactionIDs(res.Notifications))
	for _, n := range res.Notifications {
		assert.NotZero(t, n.ID)
		assert.Equal(t, "10.50", n.Amount.StringFixed(2))
	}
}

func TestSaveNew_IsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	batch := []models.PaymentNotification{
		notification("A", 1, "09:00:00"),
		notification("B", 2, "09:00:00"),
	}

	first, err := store.SaveNew(ctx, batch)
	require.NoError(t, err)
	countAfterFirst, err := store.Count(ctx)
	require.NoError(t, err)

	second, err := store.SaveNew(ctx, batch)
	require.NoError(t, err)
	countAfterSecond, err := store.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, int64(2), countAfterFirst)
	assert.Equal(t, countAfterFirst, countAfterSecond)
	assert.Equal(t, transactionIDs(first.Notifications), transactionIDs(second.Notifications))
	assert.Equal(t, first.Notifications[0].ID, second.Notifications[0].ID)
}

func TestSaveNew_OnlyNewRowsInsertedAllReturned(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveNew(ctx, []models.PaymentNotification{
		notification("OLD-1", 1, "10:00:00"),
		notification("OLD-2", 2, "10:00:00"),
	})
	require.NoError(t, err)

	res, err := store.SaveNew(ctx, []models.PaymentNotification{
		notification("OLD-1", 1, "10:00:00"),
		notification("OLD-2", 2, "10:00:00"),
		notification("NEW-1", 4, "10:00:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, []string{"NEW-1", "OLD-2", "OLD-1"}, transactionIDs(res.Notifications))

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestSaveNew_DuplicateIDsWithinBatch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := notification("DUP", 1, "10:00:00")
	second := notification("DUP", 1, "11:00:00")

	res, err := store.SaveNew(ctx, []models.PaymentNotification{first, second})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, "10:00:00", res.Notifications[0].Time, "first occurrence wins")
}

func TestSaveNew_EmptyBatch(t *testing.T) {
	store, _ := newTestStore(t)

	res, err := store.SaveNew(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.NotNil(t, res.Notifications)
	assert.Empty(t, res.Notifications)
}

func TestTransactionIDUniqueness(t *testing.T) {
	store, gormDB := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveNew(ctx, []models.PaymentNotification{notification("UNIQ", 1, "10:00:00")})
	require.NoError(t, err)

	forced := notification("UNIQ", 2, "12:00:00")
	err = gormDB.Create(&forced).Error
	assert.Error(t, err, "the unique index rejects a second row for the same transaction id")

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	rows, err := store.FindByTransactionIDs(ctx, []string{"UNIQ"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "10:00:00", rows[0].Time)
}

func TestSaveNew_ConflictingInsertIsIgnored(t *testing.T) {
	store, gormDB := newTestStore(t)
	ctx := context.Background()

	// Another writer stores the row between our existence check and insert.
	// Simulated by inserting directly and asking the gate to insert the
	// same row as if it were new.
	racer := notification("RACE", 1, "10:00:00")
	require.NoError(t, gormDB.Create(&racer).Error)

	fresh := withoutTransactionIDs([]models.PaymentNotification{notification("RACE", 1, "10:00:00")}, nil)
	res := gormDB.Clauses(onConflictIgnore()).Create(&fresh)
	require.NoError(t, res.Error)
	assert.Equal(t, int64(0), res.RowsAffected)

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
