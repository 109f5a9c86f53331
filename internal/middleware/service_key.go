package middleware

import (
	"context"
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ServiceKeyHeader carries the shared secret on service-to-service requests
const ServiceKeyHeader = "X-Service-Key"

// IsServiceAuthKey is the context key marking a request authenticated by service key
const IsServiceAuthKey contextKey = "is_service_auth"

// ServiceKeyAuthMiddleware authenticates internal callers by a shared key
type ServiceKeyAuthMiddleware struct {
	key []byte
}

// NewServiceKeyAuthMiddleware creates a ServiceKeyAuthMiddleware. An empty key rejects every request.
func NewServiceKeyAuthMiddleware(key string) *ServiceKeyAuthMiddleware {
	return &ServiceKeyAuthMiddleware{key: []byte(key)}
}

// Authenticate returns an Echo middleware that checks the service key header
func (m *ServiceKeyAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(m.key) == 0 {
				log.Error().Msg("Service key auth called with no key configured")
				return unauthorizedError(c, "Service authentication is not configured")
			}

			provided := c.Request().Header.Get(ServiceKeyHeader)
			if provided == "" {
				return unauthorizedError(c, "Missing service key")
			}
			if subtle.ConstantTimeCompare([]byte(provided), m.key) != 1 {
				log.Warn().Str("remote_ip", c.RealIP()).Msg("Invalid service key")
				return unauthorizedError(c, "Invalid service key")
			}

			ctx := context.WithValue(c.Request().Context(), IsServiceAuthKey, true)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// IsServiceAuth checks if the request was authenticated via service key
func IsServiceAuth(c echo.Context) bool {
	if ok, _ := c.Request().Context().Value(IsServiceAuthKey).(bool); ok {
		return true
	}
	return false
}
