package services

import (
	"context"

	"gorm.io/gorm"

	"payfast_gateway_echo/internal/models"
)

// CallbackHistoryStore appends gateway notifications to the
// payment_callback_histories table.
type CallbackHistoryStore struct {
	db *gorm.DB
}

func NewCallbackHistoryStore(db *gorm.DB) *CallbackHistoryStore {
	return &CallbackHistoryStore{db: db}
}

func (s *CallbackHistoryStore) Record(ctx context.Context, entry *models.PaymentCallbackHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ListByOrderGUID returns the history of one order, oldest first.
func (s *CallbackHistoryStore) ListByOrderGUID(ctx context.Context, guid string) ([]models.PaymentCallbackHistory, error) {
	var entries []models.PaymentCallbackHistory
	err := s.db.WithContext(ctx).Where("order_guid = ?", guid).Order("id").Find(&entries).Error
	return entries, err
}
