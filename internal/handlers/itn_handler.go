package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"payfast_gateway_echo/internal/payfast"
)

// maxCallbackBody bounds the ITN body read from the gateway.
const maxCallbackBody = 64 << 10

type ITNProcessor interface {
	Process(ctx context.Context, n payfast.Notification) error
}

// ITNHandler receives PayFast Instant Transaction Notifications.
type ITNHandler struct {
	processor ITNProcessor
	log       *zap.Logger
}

func NewITNHandler(processor ITNProcessor, log *zap.Logger) *ITNHandler {
	return &ITNHandler{processor: processor, log: log}
}

// HandleCallback always answers 200 with an empty body, whatever the
// validation result, so the gateway neither retries rejected notifications
// nor learns which check failed. Only a failure to persist a validated
// payment is returned as an error.
func (h *ITNHandler) HandleCallback(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBody))
	if err != nil {
		h.log.Warn("failed to read ITN body", zap.String("remote_ip", c.RealIP()), zap.Error(err))
		return c.NoContent(http.StatusOK)
	}

	err = h.processor.Process(c.Request().Context(), payfast.Notification{
		Body:     body,
		RemoteIP: c.RealIP(),
	})
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}
