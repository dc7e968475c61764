package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paysync-server/internal/models"
)

const defaultInsertBatchSize = 100

// SaveResult describes one pass through the dedup gate.
type SaveResult struct {
	Inserted int
	Skipped  int
	// Notifications holds every stored row whose transaction id was among
	// the candidates, newest first.
	Notifications []models.PaymentNotification
}

// NotificationStore persists payment notifications, inserting each
// transaction id at most once.
type NotificationStore struct {
	db        *gorm.DB
	timeout   time.Duration
	batchSize int
}

func NewNotificationStore(db *gorm.DB, timeout time.Duration) *NotificationStore {
	return &NotificationStore{db: db, timeout: timeout, batchSize: defaultInsertBatchSize}
}

// SaveNew inserts the candidates whose transaction id is not stored yet and
// returns the stored rows for all candidate ids. Inserts happen in a single
// transaction. A row that loses a race with a concurrent insert of the same
// id is dropped by ON CONFLICT DO NOTHING rather than failing the batch.
func (s *NotificationStore) SaveNew(ctx context.Context, candidates []models.PaymentNotification) (*SaveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ids, unique := distinctByTransactionID(candidates)
	result := &SaveResult{Notifications: []models.PaymentNotification{}}
	if len(ids) == 0 {
		return result, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&models.PaymentNotification{}).
			Where("transaction_id IN ?", ids).
			Pluck("transaction_id", &existing).Error; err != nil {
			return fmt.Errorf("find existing transactions: %w", err)
		}

		fresh := withoutTransactionIDs(unique, existing)
		if len(fresh) == 0 {
			return nil
		}

		res := tx.Clauses(onConflictIgnore()).CreateInBatches(&fresh, s.batchSize)
		if res.Error != nil {
			return fmt.Errorf("insert notifications: %w", res.Error)
		}
		result.Inserted = int(res.RowsAffected)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Skipped = len(candidates) - result.Inserted

	stored, err := s.findByTransactionIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	result.Notifications = stored
	return result, nil
}

// FindByTransactionIDs returns stored rows for ids, newest first.
func (s *NotificationStore) FindByTransactionIDs(ctx context.Context, ids []string) ([]models.PaymentNotification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.findByTransactionIDs(ctx, ids)
}

func (s *NotificationStore) findByTransactionIDs(ctx context.Context, ids []string) ([]models.PaymentNotification, error) {
	stored := []models.PaymentNotification{}
	if len(ids) == 0 {
		return stored, nil
	}
	if err := s.db.WithContext(ctx).
		Where("transaction_id IN ?", ids).
		Order("date DESC").
		Order("time_of_day DESC").
		Order("id DESC").
		Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	return stored, nil
}

// Count returns the number of stored notifications.
func (s *NotificationStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.PaymentNotification{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return total, nil
}

func onConflictIgnore() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}},
		DoNothing: true,
	}
}

// distinctByTransactionID keeps the first candidate for each id.
func distinctByTransactionID(candidates []models.PaymentNotification) ([]string, []models.PaymentNotification) {
	seen := make(map[string]struct{}, len(candidates))
	ids := make([]string, 0, len(candidates))
	unique := make([]models.PaymentNotification, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.TransactionID]; ok {
			continue
		}
		seen[c.TransactionID] = struct{}{}
		ids = append(ids, c.TransactionID)
		unique = append(unique, c)
	}
	return ids, unique
}

func withoutTransactionIDs(candidates []models.PaymentNotification, existing []string) []models.PaymentNotification {
	present := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		present[id] = struct{}{}
	}
	fresh := make([]models.PaymentNotification, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := present[c.TransactionID]; ok {
			continue
		}
		c.ID = 0
		fresh = append(fresh, c)
	}
	return fresh
}
