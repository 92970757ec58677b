package models

import (
	"encoding/json"
	"time"
)

type PaymentGateway string

const (
	PaymentGatewayPayFast PaymentGateway = "payfast"
)

// PaymentCallbackHistory records one received gateway notification and how
// it was judged.
type PaymentCallbackHistory struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderGUID      string          `gorm:"type:varchar(100);index" json:"order_guid"`
	GatewayTxnID   string          `gorm:"type:varchar(100);index" json:"gateway_txn_id"`
	PaymentStatus  string          `gorm:"type:varchar(50)" json:"payment_status"`
	RemoteIP       string          `gorm:"type:varchar(64)" json:"remote_ip"`
	Outcome        string          `gorm:"type:varchar(50);not null" json:"outcome"`
	Detail         string          `gorm:"type:text" json:"detail"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
}
