package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payfast_gateway_echo/internal/config"
	"payfast_gateway_echo/internal/logging"
	"payfast_gateway_echo/internal/services"
)

// configure writes the PayFast gateway settings row, the way installing the
// payment method would.
func main() {
	merchantID := flag.String("merchant_id", "", "PayFast merchant ID (mandatory)")
	merchantKey := flag.String("merchant_key", "", "PayFast merchant key (mandatory)")
	sandbox := flag.Bool("sandbox", true, "Use the PayFast sandbox (optional, default: true)")
	feeStr := flag.String("additional_fee", "0", "Additional handling fee (optional, default: 0)")
	feePercentage := flag.Bool("fee_percentage", false, "Treat additional_fee as a percentage of the subtotal (optional)")

	flag.Parse()

	// Validation
	if *merchantID == "" || *merchantKey == "" {
		fmt.Println("Usage: configure -merchant_id <id> -merchant_key <key> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fee, err := decimal.NewFromString(*feeStr)
	if err != nil || fee.IsNegative() {
		log.Fatalf("Invalid additional_fee %q", *feeStr)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := services.InitDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := services.AutoMigrate(db, logger); err != nil {
		logger.Fatal("failed to run database migrations", zap.Error(err))
	}

	defaults, err := services.DefaultSettings(cfg.PayFast)
	if err != nil {
		logger.Fatal("invalid payfast settings", zap.Error(err))
	}

	settings := defaults
	settings.MerchantID = *merchantID
	settings.MerchantKey = *merchantKey
	settings.UseSandbox = *sandbox
	settings.AdditionalFee = fee
	settings.AdditionalFeePercentage = *feePercentage

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := services.NewSettingsStore(db, defaults).Save(ctx, settings); err != nil {
		logger.Fatal("failed to save settings", zap.Error(err))
	}

	fmt.Printf("Saved PayFast settings for merchant %s\n", settings.MerchantID)
	fmt.Printf("Sandbox: %t\nValidate URL: %s\n", settings.UseSandbox, settings.ValidateURL())
}
