package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayFastSettings is the single persisted row of gateway settings.
type PayFastSettings struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MerchantID              string          `gorm:"type:varchar(50);not null" json:"merchant_id"`
	MerchantKey             string          `gorm:"type:varchar(100);not null" json:"merchant_key"`
	UseSandbox              bool            `json:"use_sandbox"`
	AdditionalFee           decimal.Decimal `gorm:"type:decimal(18,4)" json:"additional_fee"`
	AdditionalFeePercentage bool            `json:"additional_fee_percentage"`
}

func (PayFastSettings) TableName() string { return "payfast_settings" }
