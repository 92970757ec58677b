package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusAuthorized        PaymentStatus = "authorized"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusVoided            PaymentStatus = "voided"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusComplete   OrderStatus = "complete"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is a checkout order. OrderGUID is the merchant payment reference
// sent to the gateway so the public ID never leaves the site.
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OrderGUID                  uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"order_guid"`
	OrderTotal                 decimal.Decimal `gorm:"type:decimal(18,4)" json:"order_total"`
	OrderStatus                OrderStatus     `gorm:"type:varchar(20);default:'pending'" json:"order_status"`
	PaymentStatus              PaymentStatus   `gorm:"type:varchar(20);default:'pending';index" json:"payment_status"`
	AuthorizationTransactionID string          `gorm:"type:varchar(100)" json:"authorization_transaction_id"`
	PaidAt                     *time.Time      `json:"paid_at"`
}

// CanMarkPaid reports whether the order may still transition to paid.
func (o Order) CanMarkPaid() bool {
	if o.OrderStatus == OrderStatusCancelled {
		return false
	}
	switch o.PaymentStatus {
	case PaymentStatusPaid, PaymentStatusPartiallyRefunded, PaymentStatusRefunded, PaymentStatusVoided:
		return false
	}
	return true
}
