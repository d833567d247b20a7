package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const ReceivedKey = "received"

// Stamps every request with the moment it arrived, in UTC. Stored entries use
// this instead of the time they were written.
func Received(now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			span := trace.SpanFromContext(c.Request().Context())

			received := now().UTC()
			c.Set(ReceivedKey, received)
			span.SetAttributes(attribute.String("request.received", received.Format(time.RFC3339Nano)))

			return next(c)
		}
	}
}

// When the request arrived. Falls back to now for contexts that skipped Received.
func ReceivedAt(c echo.Context) time.Time {
	if t, ok := c.Get(ReceivedKey).(time.Time); ok {
		return t
	}

	return time.Now().UTC()
}
