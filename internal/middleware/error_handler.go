package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NewErrorHandler creates a custom error handler for Echo that logs through
// zap and answers with a small JSON body.
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Something went wrong. Please try again later."

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if msg, ok := he.Message.(string); ok && msg != "" {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		}

		fields := []zap.Field{
			zap.Int("status", code),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		}
		if code >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
		} else {
			log.Info("request rejected", fields...)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, map[string]string{"message": message})
		}
		if writeErr != nil {
			log.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}
