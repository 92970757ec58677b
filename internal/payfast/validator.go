package payfast

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"payfast_gateway_echo/internal/logging"
	"payfast_gateway_echo/internal/models"
)

// StatusComplete is the only payment_status that pays an order.
const StatusComplete = "COMPLETE"

// Request is one notification as seen by the validator.
type Request struct {
	Payload  Payload
	RemoteIP string
	Settings Settings
}

// Outcome is either Valid (Err nil, Order set) or Invalid (Err set).
type Outcome struct {
	Order *models.Order
	Err   *ValidationError
}

func (o Outcome) Valid() bool { return o.Err == nil && o.Order != nil }

// Label names the outcome for logs, metrics and the callback history.
func (o Outcome) Label() string {
	if o.Valid() {
		return "valid"
	}
	return o.Err.Reason.String()
}

// state is threaded through the checks; the order is filled in by the
// first one.
type state struct {
	Request
	order *models.Order
}

type check struct {
	reason Reason
	run    func(ctx context.Context, st *state) *ValidationError
}

// Validator runs the trust checks in order and stops at the first failure.
type Validator struct {
	resolver  *OrderResolver
	sources   SourceVerifier
	confirmer Confirmer
	observer  Observer
	log       *zap.Logger
	checks    []check
}

func NewValidator(resolver *OrderResolver, sources SourceVerifier, confirmer Confirmer, observer Observer, log *zap.Logger) *Validator {
	if observer == nil {
		observer = NopObserver{}
	}
	v := &Validator{
		resolver:  resolver,
		sources:   sources,
		confirmer: confirmer,
		observer:  observer,
		log:       log,
	}
	v.checks = []check{
		{ReasonOrderNotFound, v.checkOrder},
		{ReasonMerchantMismatch, v.checkMerchant},
		{ReasonUntrustedSource, v.checkSource},
		{ReasonUpstreamUnconfirmed, v.checkUpstream},
		{ReasonPaymentNotComplete, v.checkStatus},
	}
	return v
}

// Validate returns Valid only when every check passes.
func (v *Validator) Validate(ctx context.Context, req Request) Outcome {
	st := &state{Request: req}
	for _, c := range v.checks {
		if verr := c.run(ctx, st); verr != nil {
			v.logRejection(st, verr)
			return Outcome{Err: verr}
		}
	}
	return Outcome{Order: st.order}
}

func (v *Validator) logRejection(st *state, verr *ValidationError) {
	fields := []zap.Field{
		logging.Category(verr.Reason.String()),
		zap.String("m_payment_id", st.Payload.Get(FieldMPaymentID)),
		zap.String("pf_payment_id", st.Payload.Get(FieldPFPaymentID)),
		zap.String("remote_ip", st.RemoteIP),
		zap.Error(verr.Err),
	}
	if st.order != nil {
		fields = append(fields, zap.Uint("order_id", st.order.ID))
	}
	v.log.Warn("ITN request rejected", fields...)
}

func (v *Validator) checkOrder(ctx context.Context, st *state) *ValidationError {
	order, err := v.resolver.Resolve(ctx, st.Payload)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return &ValidationError{Reason: ReasonOrderNotFound, Err: err}
	}
	st.order = order
	return nil
}

func (v *Validator) checkMerchant(_ context.Context, st *state) *ValidationError {
	got := st.Payload.Get(FieldMerchantID)
	if got != st.Settings.MerchantID {
		return reject(ReasonMerchantMismatch, "merchant_id %q does not match configured %q", got, st.Settings.MerchantID)
	}
	return nil
}

func (v *Validator) checkSource(ctx context.Context, st *state) *ValidationError {
	addr, err := netip.ParseAddr(st.RemoteIP)
	if err != nil {
		return reject(ReasonUntrustedSource, "source address %q is not an IP address", st.RemoteIP)
	}

	start := time.Now()
	ok, err := v.sources.IsGatewayAddress(ctx, addr)
	v.observer.ObserveGatewayCall(CallResolveHosts, err, time.Since(start))
	if err != nil {
		return reject(ReasonUntrustedSource, "resolving gateway hosts for %s: %w", addr, err)
	}
	if !ok {
		return reject(ReasonUntrustedSource, "source address %s is not a gateway address", addr)
	}
	return nil
}

func (v *Validator) checkUpstream(ctx context.Context, st *state) *ValidationError {
	start := time.Now()
	err := v.confirmer.Confirm(ctx, st.Settings.ValidateURL(), st.Payload)
	v.observer.ObserveGatewayCall(CallValidate, err, time.Since(start))
	if err != nil {
		return reject(ReasonUpstreamUnconfirmed, "%w", err)
	}
	return nil
}

func (v *Validator) checkStatus(_ context.Context, st *state) *ValidationError {
	if status := st.Payload.Get(FieldPaymentStatus); status != StatusComplete {
		return reject(ReasonPaymentNotComplete, "payment_status is %q", status)
	}
	return nil
}
