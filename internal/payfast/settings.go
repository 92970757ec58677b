package payfast

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	ProductionBaseURL = "https://www.payfast.co.za"
	SandboxBaseURL    = "https://sandbox.payfast.co.za"

	validatePath = "/eng/query/validate"
)

// DefaultValidHosts are the gateway hostnames ITN requests may come from.
var DefaultValidHosts = []string{
	"www.payfast.co.za",
	"sandbox.payfast.co.za",
	"w1w.payfast.co.za",
	"w2w.payfast.co.za",
}

// Settings is a read-only snapshot of the gateway configuration. It is
// passed by value into each validation.
type Settings struct {
	MerchantID              string
	MerchantKey             string
	UseSandbox              bool
	AdditionalFee           decimal.Decimal
	AdditionalFeePercentage bool
}

// SettingsStore loads the current gateway settings.
type SettingsStore interface {
	Load(ctx context.Context) (Settings, error)
}

func (s Settings) BaseURL() string {
	if s.UseSandbox {
		return SandboxBaseURL
	}
	return ProductionBaseURL
}

// ValidateURL is the endpoint notifications are echoed back to.
func (s Settings) ValidateURL() string { return s.BaseURL() + validatePath }

// AdditionalHandlingFee is the fee added to an order with the given
// subtotal, either fixed or a percentage of the subtotal, rounded to cents.
func (s Settings) AdditionalHandlingFee(subtotal decimal.Decimal) decimal.Decimal {
	if s.AdditionalFee.IsNegative() || s.AdditionalFee.IsZero() {
		return decimal.Zero
	}
	if !s.AdditionalFeePercentage {
		return s.AdditionalFee.Round(2)
	}
	return subtotal.Mul(s.AdditionalFee).Div(decimal.NewFromInt(100)).Round(2)
}

// StaticSettings serves one fixed Settings value.
type StaticSettings Settings

func (s StaticSettings) Load(context.Context) (Settings, error) { return Settings(s), nil }
