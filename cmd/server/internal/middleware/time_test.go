package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceived(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	e := echo.New()
	var seen time.Time
	e.GET("/", func(c echo.Context) error {
		seen = ReceivedAt(c)
		return c.NoContent(http.StatusNoContent)
	}, Received(func() time.Time { return fixed }))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, fixed.Equal(seen))
	assert.Equal(t, time.UTC, seen.Location(), "received time is normalized to utc")
}

func TestReceivedAtWithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	before := time.Now()
	assert.WithinRange(t, ReceivedAt(c), before.Add(-time.Second), time.Now().Add(time.Second))
}
