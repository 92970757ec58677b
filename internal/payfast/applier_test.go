package payfast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"payfast_gateway_echo/internal/models"
)

func pendingOrder() *models.Order {
	return &models.Order{
		ID:            7,
		OrderGUID:     uuid.New(),
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}
}

func TestApplier_Apply(t *testing.T) {
	payload := NewPayload(Field{Name: FieldPFPaymentID, Value: "1089250"})

	tests := []struct {
		name          string
		order         func() *models.Order
		outcome       func(o *models.Order) Outcome
		setup         func(orders *memoryOrders, locker *lockerMock, o *models.Order)
		expectedErr   bool
		expectedPaid  bool
		expectedLocks int
	}{
		{
			name:  "invalid outcome touches nothing",
			order: pendingOrder,
			outcome: func(*models.Order) Outcome {
				return Outcome{Err: &ValidationError{Reason: ReasonMerchantMismatch}}
			},
		},
		{
			name:    "valid outcome pays under lock",
			order:   pendingOrder,
			outcome: func(o *models.Order) Outcome { return Outcome{Order: o} },
			setup: func(_ *memoryOrders, locker *lockerMock, o *models.Order) {
				locker.On("Lock", mock.Anything, "payfast:order:"+o.OrderGUID.String(), time.Second).Return(func() {}, nil)
			},
			expectedPaid:  true,
			expectedLocks: 1,
		},
		{
			name: "cancelled order is not eligible",
			order: func() *models.Order {
				o := pendingOrder()
				o.OrderStatus = models.OrderStatusCancelled
				return o
			},
			outcome: func(o *models.Order) Outcome { return Outcome{Order: o} },
			setup: func(_ *memoryOrders, locker *lockerMock, _ *models.Order) {
				locker.On("Lock", mock.Anything, mock.Anything, mock.Anything).Return(func() {}, nil)
			},
			expectedLocks: 1,
		},
		{
			name:    "lost compare-and-set is a no-op",
			order:   pendingOrder,
			outcome: func(o *models.Order) Outcome { return Outcome{Order: o} },
			setup: func(orders *memoryOrders, locker *lockerMock, _ *models.Order) {
				orders.markPaidErr = models.ErrOrderAlreadyPaid
				locker.On("Lock", mock.Anything, mock.Anything, mock.Anything).Return(func() {}, nil)
			},
			expectedLocks: 1,
		},
		{
			name:    "lock failure propagates",
			order:   pendingOrder,
			outcome: func(o *models.Order) Outcome { return Outcome{Order: o} },
			setup: func(_ *memoryOrders, locker *lockerMock, _ *models.Order) {
				locker.On("Lock", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))
			},
			expectedErr:   true,
			expectedLocks: 1,
		},
		{
			name:    "mark paid failure propagates",
			order:   pendingOrder,
			outcome: func(o *models.Order) Outcome { return Outcome{Order: o} },
			setup: func(orders *memoryOrders, locker *lockerMock, _ *models.Order) {
				orders.markPaidErr = errors.New("deadlock detected")
				locker.On("Lock", mock.Anything, mock.Anything, mock.Anything).Return(func() {}, nil)
			},
			expectedErr:   true,
			expectedLocks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := tt.order()
			orders := newMemoryOrders(order)
			locker := new(lockerMock)
			if tt.setup != nil {
				tt.setup(orders, locker, order)
			}

			applier := NewApplier(orders, locker, time.Second, zap.NewNop())
			err := applier.Apply(context.Background(), tt.outcome(order), payload)

			if tt.expectedErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			locker.AssertNumberOfCalls(t, "Lock", tt.expectedLocks)

			stored := orders.get(order.OrderGUID)
			if tt.expectedPaid {
				require.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
				require.Equal(t, "1089250", stored.AuthorizationTransactionID)
			} else {
				require.NotEqual(t, models.PaymentStatusPaid, stored.PaymentStatus)
			}
		})
	}
}

// staleEligibility reports every order as payable, as a read taken just
// before a concurrent delivery paid it would.
type staleEligibility struct {
	*memoryOrders
}

func (staleEligibility) IsEligibleForPayment(context.Context, *models.Order) bool { return true }

func TestApplier_LosingDeliveryKeepsWinningTransactionID(t *testing.T) {
	order := pendingOrder()
	order.PaymentStatus = models.PaymentStatusPaid
	order.AuthorizationTransactionID = "TXN-A"
	orders := newMemoryOrders(order)

	applier := NewApplier(staleEligibility{orders}, NopLocker{}, time.Second, zap.NewNop())
	err := applier.Apply(context.Background(), Outcome{Order: order}, NewPayload(Field{Name: FieldPFPaymentID, Value: "TXN-B"}))
	require.NoError(t, err)

	stored := orders.get(order.OrderGUID)
	require.Equal(t, "TXN-A", stored.AuthorizationTransactionID)
	require.Equal(t, models.PaymentStatusPaid, stored.PaymentStatus)
	require.Zero(t, orders.markPaidCalls)
}

func TestOrderResolver_StoreFailureIsNotFound(t *testing.T) {
	order := pendingOrder()
	orders := newMemoryOrders(order)
	orders.findErr = errors.New("connection refused")

	resolver := NewOrderResolver(orders, zap.NewNop())
	_, err := resolver.Resolve(context.Background(), NewPayload(Field{Name: FieldMPaymentID, Value: order.OrderGUID.String()}))

	require.ErrorIs(t, err, ErrOrderNotFound)
	require.NotContains(t, err.Error(), "connection refused")
}

func TestOrderResolver_AcceptsBracedGUIDAndAnyFieldCase(t *testing.T) {
	order := pendingOrder()
	resolver := NewOrderResolver(newMemoryOrders(order), zap.NewNop())

	got, err := resolver.Resolve(context.Background(), NewPayload(Field{Name: "M_PAYMENT_ID", Value: "{" + order.OrderGUID.String() + "}"}))

	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
}
