package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"payfast_gateway_echo/internal/config"
	"payfast_gateway_echo/internal/models"
	"payfast_gateway_echo/internal/payfast"
)

// SettingsStore keeps the gateway settings in a single row. Seed writes
// the row from defaults at startup; Load only reads.
type SettingsStore struct {
	db       *gorm.DB
	defaults payfast.Settings
}

func NewSettingsStore(db *gorm.DB, defaults payfast.Settings) *SettingsStore {
	return &SettingsStore{db: db, defaults: defaults}
}

// Seed inserts the default row when none exists yet.
func (s *SettingsStore) Seed(ctx context.Context) error {
	var row models.PayFastSettings
	err := s.db.WithContext(ctx).Order("id").First(&row).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed payfast settings: %w", err)
	}
	row = settingsRow(s.defaults)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("seed payfast settings: %w", err)
	}
	return nil
}

// Load returns a snapshot of the stored settings, or the defaults when the
// row has not been seeded.
func (s *SettingsStore) Load(ctx context.Context) (payfast.Settings, error) {
	var row models.PayFastSettings
	err := s.db.WithContext(ctx).Order("id").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return payfast.Settings{}, fmt.Errorf("load payfast settings: %w", err)
	}

	return payfast.Settings{
		MerchantID:              row.MerchantID,
		MerchantKey:             row.MerchantKey,
		UseSandbox:              row.UseSandbox,
		AdditionalFee:           row.AdditionalFee,
		AdditionalFeePercentage: row.AdditionalFeePercentage,
	}, nil
}

// Save replaces the stored settings.
func (s *SettingsStore) Save(ctx context.Context, settings payfast.Settings) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.PayFastSettings
		err := tx.Order("id").First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		next := settingsRow(settings)
		next.ID = row.ID
		next.CreatedAt = row.CreatedAt
		return tx.Save(&next).Error
	})
}

func settingsRow(s payfast.Settings) models.PayFastSettings {
	return models.PayFastSettings{
		MerchantID:              s.MerchantID,
		MerchantKey:             s.MerchantKey,
		UseSandbox:              s.UseSandbox,
		AdditionalFee:           s.AdditionalFee,
		AdditionalFeePercentage: s.AdditionalFeePercentage,
	}
}

// DefaultSettings converts the PAYFAST_* configuration into the settings
// used to seed the store.
func DefaultSettings(cfg config.PayFast) (payfast.Settings, error) {
	fee, err := decimal.NewFromString(cfg.AdditionalFee)
	if err != nil {
		return payfast.Settings{}, fmt.Errorf("parse additional fee %q: %w", cfg.AdditionalFee, err)
	}
	return payfast.Settings{
		MerchantID:              cfg.MerchantID,
		MerchantKey:             cfg.MerchantKey,
		UseSandbox:              cfg.UseSandbox,
		AdditionalFee:           fee,
		AdditionalFeePercentage: cfg.AdditionalFeePercentage,
	}, nil
}
