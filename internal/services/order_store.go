package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"payfast_gateway_echo/internal/models"
)

// OrderStore is the gorm-backed order store.
type OrderStore struct {
	db *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// FindByCorrelationID looks an order up by its merchant payment reference.
func (s *OrderStore) FindByCorrelationID(ctx context.Context, guid uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("order_guid = ?", guid).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByPublicID looks an order up by its public id.
func (s *OrderStore) FindByPublicID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// payable limits a write to orders that can still be marked paid.
func payable(db *gorm.DB, id uint) *gorm.DB {
	return db.Model(&models.Order{}).
		Where("id = ? AND payment_status IN ?", id, []models.PaymentStatus{models.PaymentStatusPending, models.PaymentStatusAuthorized}).
		Where("order_status <> ?", models.OrderStatusCancelled)
}

// Update persists the order's transaction id while the order is still
// payable. Payment status only changes through MarkPaid. An order paid in
// the meantime yields models.ErrOrderAlreadyPaid and keeps the id it was
// paid with.
func (s *OrderStore) Update(ctx context.Context, order *models.Order) error {
	db := s.db.WithContext(ctx)
	res := payable(db, order.ID).
		Update("authorization_transaction_id", order.AuthorizationTransactionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.missingOrPaid(db, order.ID)
	}
	return nil
}

func (s *OrderStore) missingOrPaid(db *gorm.DB, id uint) error {
	var count int64
	if err := db.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("order %d: %w", id, models.ErrOrderNotFound)
	}
	return models.ErrOrderAlreadyPaid
}

func (s *OrderStore) IsEligibleForPayment(_ context.Context, order *models.Order) bool {
	return order.CanMarkPaid()
}

// MarkPaid moves the order to paid with a compare-and-set on its payment
// status, so of two racing callers exactly one wins. The winner's
// transaction id is written in the same statement. The loser gets
// models.ErrOrderAlreadyPaid.
func (s *OrderStore) MarkPaid(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()

	res := payable(s.db.WithContext(ctx), order.ID).
		Updates(map[string]interface{}{
			"authorization_transaction_id": order.AuthorizationTransactionID,
			"payment_status":               models.PaymentStatusPaid,
			"order_status":                 gorm.Expr("CASE WHEN order_status = ? THEN ? ELSE order_status END", models.OrderStatusPending, models.OrderStatusProcessing),
			"paid_at":                      now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrOrderAlreadyPaid
	}

	order.PaymentStatus = models.PaymentStatusPaid
	if order.OrderStatus == models.OrderStatusPending {
		order.OrderStatus = models.OrderStatusProcessing
	}
	order.PaidAt = &now
	return nil
}
