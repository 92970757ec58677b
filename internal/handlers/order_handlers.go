package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"payfast_gateway_echo/internal/models"
	"payfast_gateway_echo/internal/payfast"
)

type OrderFinder interface {
	FindByPublicID(ctx context.Context, id uint) (*models.Order, error)
}

type CallbackHistoryLister interface {
	ListByOrderGUID(ctx context.Context, guid string) ([]models.PaymentCallbackHistory, error)
}

type OrderHandler struct {
	orders   OrderFinder
	history  CallbackHistoryLister
	settings payfast.SettingsStore
}

func NewOrderHandler(orders OrderFinder, history CallbackHistoryLister, settings payfast.SettingsStore) *OrderHandler {
	return &OrderHandler{orders: orders, history: history, settings: settings}
}

// NotificationSummary is one received ITN as shown on the status endpoint.
type NotificationSummary struct {
	Outcome       string    `json:"outcome"`
	PaymentStatus string    `json:"payment_status"`
	ReceivedAt    time.Time `json:"received_at"`
}

// PaymentStatus returns the payment state of an order and the ITNs
// received for it.
func (h *OrderHandler) PaymentStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}

	ctx := c.Request().Context()
	order, err := h.orders.FindByPublicID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Order not found")
		}
		return err
	}

	entries, err := h.history.ListByOrderGUID(ctx, order.OrderGUID.String())
	if err != nil {
		return err
	}
	notifications := make([]NotificationSummary, 0, len(entries))
	for _, e := range entries {
		notifications = append(notifications, NotificationSummary{
			Outcome:       e.Outcome,
			PaymentStatus: e.PaymentStatus,
			ReceivedAt:    e.CreatedAt,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
		"transaction_id": order.AuthorizationTransactionID,
		"notifications":  notifications,
	})
}

// AdditionalFee returns the handling fee the gateway adds for a subtotal.
func (h *OrderHandler) AdditionalFee(c echo.Context) error {
	subtotal, err := decimal.NewFromString(c.QueryParam("subtotal"))
	if err != nil || subtotal.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid subtotal")
	}

	settings, err := h.settings.Load(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"fee": settings.AdditionalHandlingFee(subtotal).StringFixed(2),
	})
}
