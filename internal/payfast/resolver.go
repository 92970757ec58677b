package payfast

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"payfast_gateway_echo/internal/logging"
	"payfast_gateway_echo/internal/models"
)

// OrderService is the order store and order-processing surface the ITN
// flow needs.
type OrderService interface {
	FindByCorrelationID(ctx context.Context, guid uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	IsEligibleForPayment(ctx context.Context, order *models.Order) bool
	MarkPaid(ctx context.Context, order *models.Order) error
}

// OrderResolver maps a notification's merchant payment reference to an order.
type OrderResolver struct {
	orders OrderService
	log    *zap.Logger
}

func NewOrderResolver(orders OrderService, log *zap.Logger) *OrderResolver {
	return &OrderResolver{orders: orders, log: log}
}

// Resolve returns the order named by m_payment_id. A malformed reference,
// an unknown order and a failing store all come back as ErrOrderNotFound;
// only the error detail and the log tell them apart.
func (r *OrderResolver) Resolve(ctx context.Context, payload Payload) (*models.Order, error) {
	ref := payload.Get(FieldMPaymentID)

	guid, err := uuid.Parse(ref)
	if err != nil {
		return nil, reject(ReasonOrderNotFound, "m_payment_id %q is not a GUID", ref)
	}

	order, err := r.orders.FindByCorrelationID(ctx, guid)
	switch {
	case err == nil:
		return order, nil
	case errors.Is(err, models.ErrOrderNotFound):
		return nil, reject(ReasonOrderNotFound, "no order with GUID %s", guid)
	default:
		r.log.Error("order lookup failed",
			logging.Category(ReasonOrderNotFound.String()),
			zap.String("order_guid", guid.String()),
			zap.Error(err),
		)
		return nil, reject(ReasonOrderNotFound, "lookup of order %s failed", guid)
	}
}
