package payfast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"payfast_gateway_echo/internal/logging"
	"payfast_gateway_echo/internal/models"
)

// Locker serializes work on one key, across processes when backed by a
// shared store.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// NopLocker never blocks. The store's compare-and-set still keeps
// mark-paid single-shot.
type NopLocker struct{}

func (NopLocker) Lock(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// Applier turns a Valid outcome into a paid order.
type Applier struct {
	orders  OrderService
	locker  Locker
	lockTTL time.Duration
	log     *zap.Logger
}

func NewApplier(orders OrderService, locker Locker, lockTTL time.Duration, log *zap.Logger) *Applier {
	if locker == nil {
		locker = NopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Applier{orders: orders, locker: locker, lockTTL: lockTTL, log: log}
}

// Apply marks the order paid and records the gateway transaction id. An
// Invalid outcome or an order that is no longer eligible is a no-op, so a
// redelivered notification never pays twice. Errors are persistence
// failures and must reach the caller.
func (a *Applier) Apply(ctx context.Context, outcome Outcome, payload Payload) error {
	if !outcome.Valid() {
		return nil
	}

	guid := outcome.Order.OrderGUID
	lockCtx, cancel := context.WithTimeout(ctx, a.lockTTL)
	unlock, err := a.locker.Lock(lockCtx, "payfast:order:"+guid.String(), a.lockTTL)
	cancel()
	if err != nil {
		return fmt.Errorf("lock order %s: %w", guid, err)
	}
	defer unlock()

	// Re-read under the lock; a concurrent delivery may have paid it.
	order, err := a.orders.FindByCorrelationID(ctx, guid)
	if err != nil {
		return fmt.Errorf("reload order %s: %w", guid, err)
	}

	if !a.orders.IsEligibleForPayment(ctx, order) {
		a.log.Info("order not eligible for payment, notification ignored",
			logging.Category("PaymentResult"),
			zap.Uint("order_id", order.ID),
			zap.String("payment_status", string(order.PaymentStatus)),
		)
		return nil
	}

	order.AuthorizationTransactionID = payload.Get(FieldPFPaymentID)
	err = a.orders.Update(ctx, order)
	if err == nil {
		err = a.orders.MarkPaid(ctx, order)
	}
	if err != nil {
		if errors.Is(err, models.ErrOrderAlreadyPaid) {
			a.log.Info("order paid concurrently, notification ignored",
				logging.Category("PaymentResult"),
				zap.Uint("order_id", order.ID),
			)
			return nil
		}
		return fmt.Errorf("mark order %d paid: %w", order.ID, err)
	}

	a.log.Info("order marked as paid",
		logging.Category("PaymentResult"),
		zap.Uint("order_id", order.ID),
		zap.String("pf_payment_id", order.AuthorizationTransactionID),
	)
	return nil
}
