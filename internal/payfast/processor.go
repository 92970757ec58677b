package payfast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"payfast_gateway_echo/internal/models"
)

// CallbackRecorder persists a history entry for each notification.
type CallbackRecorder interface {
	Record(ctx context.Context, entry *models.PaymentCallbackHistory) error
}

// Notification is an inbound ITN as handed over by the web layer.
type Notification struct {
	Body     []byte
	RemoteIP string
}

// Processor runs the whole ITN pipeline: decode, validate, apply, record.
type Processor struct {
	settings  SettingsStore
	validator *Validator
	applier   *Applier
	recorder  CallbackRecorder
	observer  Observer
	log       *zap.Logger
}

func NewProcessor(settings SettingsStore, validator *Validator, applier *Applier, recorder CallbackRecorder, observer Observer, log *zap.Logger) *Processor {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Processor{
		settings:  settings,
		validator: validator,
		applier:   applier,
		recorder:  recorder,
		observer:  observer,
		log:       log,
	}
}

// Process handles one notification. Rejections are absorbed and return
// nil; the only errors are infrastructure failures (settings unavailable,
// or a validated payment that could not be persisted).
func (p *Processor) Process(ctx context.Context, n Notification) error {
	payload := Decode(n.Body)

	settings, err := p.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load payfast settings: %w", err)
	}

	outcome := p.validator.Validate(ctx, Request{
		Payload:  payload,
		RemoteIP: n.RemoteIP,
		Settings: settings,
	})

	applyErr := p.applier.Apply(ctx, outcome, payload)

	label := outcome.Label()
	if applyErr != nil {
		label = "apply_failed"
	}
	p.observer.ObserveOutcome(label)
	p.record(ctx, payload, n.RemoteIP, outcome, applyErr)

	return applyErr
}

func (p *Processor) record(ctx context.Context, payload Payload, remoteIP string, outcome Outcome, applyErr error) {
	if p.recorder == nil {
		return
	}

	metadata, err := json.Marshal(payload.WithoutSignature().Map())
	if err != nil {
		p.log.Error("failed to marshal ITN payload", zap.Error(err))
	}

	entry := &models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayPayFast,
		OrderGUID:      payload.Get(FieldMPaymentID),
		GatewayTxnID:   payload.Get(FieldPFPaymentID),
		PaymentStatus:  payload.Get(FieldPaymentStatus),
		RemoteIP:       remoteIP,
		Outcome:        outcome.Label(),
		Metadata:       metadata,
	}
	switch {
	case applyErr != nil:
		entry.Outcome = "apply_failed"
		entry.Detail = applyErr.Error()
	case outcome.Err != nil:
		entry.Detail = outcome.Err.Error()
	}

	if err := p.recorder.Record(ctx, entry); err != nil && !errors.Is(err, context.Canceled) {
		p.log.Error("failed to record ITN notification", zap.Error(err))
	}
}
