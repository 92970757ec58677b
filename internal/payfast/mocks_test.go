package payfast

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"payfast_gateway_echo/internal/models"
)

type sourceVerifierMock struct{ mock.Mock }

func (m *sourceVerifierMock) IsGatewayAddress(ctx context.Context, addr netip.Addr) (bool, error) {
	args := m.Called(ctx, addr)
	return args.Bool(0), args.Error(1)
}

type confirmerMock struct{ mock.Mock }

func (m *confirmerMock) Confirm(ctx context.Context, validateURL string, payload Payload) error {
	args := m.Called(ctx, validateURL, payload)
	return args.Error(0)
}

type lockerMock struct{ mock.Mock }

func (m *lockerMock) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	args := m.Called(ctx, key, ttl)
	unlock, _ := args.Get(0).(func())
	return unlock, args.Error(1)
}

// memoryOrders is an in-memory OrderService with the same compare-and-set
// semantics as the database store.
type memoryOrders struct {
	mu          sync.Mutex
	byGUID      map[uuid.UUID]*models.Order
	findErr     error
	updateErr   error
	markPaidErr error

	findCalls     int
	updateCalls   int
	markPaidCalls int
	paidCount     int
}

func newMemoryOrders(orders ...*models.Order) *memoryOrders {
	m := &memoryOrders{byGUID: make(map[uuid.UUID]*models.Order)}
	for _, o := range orders {
		m.byGUID[o.OrderGUID] = o
	}
	return m
}

func (m *memoryOrders) FindByCorrelationID(_ context.Context, guid uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	if m.findErr != nil {
		return nil, m.findErr
	}
	o, ok := m.byGUID[guid]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memoryOrders) Update(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	stored := m.byGUID[order.OrderGUID]
	if !stored.CanMarkPaid() {
		return models.ErrOrderAlreadyPaid
	}
	stored.AuthorizationTransactionID = order.AuthorizationTransactionID
	return nil
}

func (m *memoryOrders) IsEligibleForPayment(_ context.Context, order *models.Order) bool {
	return order.CanMarkPaid()
}

func (m *memoryOrders) MarkPaid(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markPaidCalls++
	if m.markPaidErr != nil {
		return m.markPaidErr
	}
	stored := m.byGUID[order.OrderGUID]
	if !stored.CanMarkPaid() {
		return models.ErrOrderAlreadyPaid
	}
	stored.AuthorizationTransactionID = order.AuthorizationTransactionID
	stored.PaymentStatus = models.PaymentStatusPaid
	order.PaymentStatus = models.PaymentStatusPaid
	m.paidCount++
	return nil
}

func (m *memoryOrders) get(guid uuid.UUID) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byGUID[guid]
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []models.PaymentCallbackHistory
	err     error
}

func (r *memoryRecorder) Record(_ context.Context, entry *models.PaymentCallbackHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, *entry)
	return nil
}

type settingsStoreMock struct{ mock.Mock }

func (m *settingsStoreMock) Load(ctx context.Context) (Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(Settings), args.Error(1)
}
