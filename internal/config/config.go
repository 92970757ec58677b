package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		App      App      `env-prefix:"APP_"`
		Log      Log      `env-prefix:"LOG_"`
		Database Database `env-prefix:"DATABASE_"`
		Redis    Redis    `env-prefix:"REDIS_"`
		HTTP     HTTP     `env-prefix:"HTTP_"`
		PayFast  PayFast  `env-prefix:"PAYFAST_"`
	}

	App struct {
		Name string `env:"NAME" env-default:"payfast-gateway" validate:"required"`
		Env  string `env:"ENV"  env-default:"local"           validate:"oneof=local dev staging prod"`
		Port string `env:"PORT" env-default:"8080"            validate:"required,numeric"`
	}

	Log struct {
		Level    string `env:"LEVEL"    env-default:"info" validate:"oneof=debug info warn error"`
		Filename string `env:"FILENAME"`
	}

	Database struct {
		URL string `env:"URL" validate:"required"`
	}

	// Redis is optional; without it mark-paid relies on the database
	// compare-and-set alone.
	Redis struct {
		URL string `env:"URL"`
	}

	HTTP struct {
		TrustedProxies []string      `env:"TRUSTED_PROXIES" env-separator:"," validate:"dive,cidr"`
		APIKey         string        `env:"API_KEY"`
		ReadTimeout    time.Duration `env:"READ_TIMEOUT"    env-default:"10s" validate:"gte=100ms,lte=1m"`
		WriteTimeout   time.Duration `env:"WRITE_TIMEOUT"   env-default:"30s" validate:"gte=100ms,lte=2m"`
	}

	PayFast struct {
		MerchantID              string        `env:"MERCHANT_ID"                  env-default:"10000103"      validate:"required"`
		MerchantKey             string        `env:"MERCHANT_KEY"                 env-default:"479f49451e829" validate:"required"`
		UseSandbox              bool          `env:"USE_SANDBOX"                  env-default:"true"`
		AdditionalFee           string        `env:"ADDITIONAL_FEE"               env-default:"0"             validate:"numeric"`
		AdditionalFeePercentage bool          `env:"ADDITIONAL_FEE_IS_PERCENTAGE" env-default:"false"`
		ValidHosts              []string      `env:"VALID_HOSTS"                  env-separator:","           env-default:"www.payfast.co.za,sandbox.payfast.co.za,w1w.payfast.co.za,w2w.payfast.co.za" validate:"min=1,dive,hostname"`
		GatewayTimeout          time.Duration `env:"GATEWAY_TIMEOUT"              env-default:"5s"            validate:"gte=100ms,lte=30s"`
		LockTTL                 time.Duration `env:"LOCK_TTL"                     env-default:"30s"           validate:"gte=1s,lte=5m"`
	}
)

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	const op = "config.Load"

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: read env: %w", op, err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()

	if err := validate.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			var msgs []string
			for _, ve := range validationErrs {
				msgs = append(msgs, fmt.Sprintf("%s=%v must satisfy '%s'", ve.Namespace(), ve.Value(), ve.Tag()))
			}
			return fmt.Errorf("config validation: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config validation: %w", err)
	}

	return nil
}
