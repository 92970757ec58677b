package payfast

import (
	"errors"
	"fmt"
)

// Reason is the category of a rejected notification. Its string form is
// used as the log category and the metrics label.
type Reason string

const (
	ReasonOrderNotFound       Reason = "OrderNotFound"
	ReasonMerchantMismatch    Reason = "MerchantMismatch"
	ReasonUntrustedSource     Reason = "UntrustedSource"
	ReasonUpstreamUnconfirmed Reason = "UpstreamUnconfirmed"
	ReasonPaymentNotComplete  Reason = "PaymentNotComplete"
)

func (r Reason) String() string { return string(r) }

var (
	ErrOrderNotFound       = errors.New("payfast: order not found")
	ErrMerchantMismatch    = errors.New("payfast: merchant mismatch")
	ErrUntrustedSource     = errors.New("payfast: untrusted source")
	ErrUpstreamUnconfirmed = errors.New("payfast: upstream did not confirm")
	ErrPaymentNotComplete  = errors.New("payfast: payment not complete")
)

var reasonErrors = map[Reason]error{
	ReasonOrderNotFound:       ErrOrderNotFound,
	ReasonMerchantMismatch:    ErrMerchantMismatch,
	ReasonUntrustedSource:     ErrUntrustedSource,
	ReasonUpstreamUnconfirmed: ErrUpstreamUnconfirmed,
	ReasonPaymentNotComplete:  ErrPaymentNotComplete,
}

// ValidationError is a terminal rejection of a notification.
type ValidationError struct {
	Reason Reason
	Err    error
}

func (e *ValidationError) Error() string {
	msg := string(e.Reason)
	if sentinel, ok := reasonErrors[e.Reason]; ok {
		msg = sentinel.Error()
	}
	if e.Err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Is lets errors.Is match the category sentinel.
func (e *ValidationError) Is(target error) bool {
	return reasonErrors[e.Reason] == target
}

func (e *ValidationError) Unwrap() error { return e.Err }

func reject(reason Reason, format string, args ...any) *ValidationError {
	return &ValidationError{Reason: reason, Err: fmt.Errorf(format, args...)}
}
