package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKeyHeader carries the key for internal endpoints.
const APIKeyHeader = "X-Api-Key"

// RequireAPIKey returns a middleware that only lets requests carrying the
// configured key through. An empty key locks the route entirely.
func RequireAPIKey(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "API key not configured")
			}

			got := c.Request().Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
			}

			return next(c)
		}
	}
}
