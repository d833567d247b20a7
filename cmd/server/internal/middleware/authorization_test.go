package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbridge/formbridge/cmd/server/internal/models"
)

func TestAuthFrom(t *testing.T) {
	e := echo.New()
	newContext := func() echo.Context {
		return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	}

	t.Run("Unset", func(t *testing.T) {
		_, ok := AuthFrom(newContext())
		assert.False(t, ok)
	})

	t.Run("WrongType", func(t *testing.T) {
		c := newContext()
		c.Set(AuthKey, "not an auth")
		_, ok := AuthFrom(c)
		assert.False(t, ok)
	})

	t.Run("NilAuth", func(t *testing.T) {
		c := newContext()
		c.Set(AuthKey, (*models.Auth)(nil))
		_, ok := AuthFrom(c)
		assert.False(t, ok)
	})

	t.Run("Set", func(t *testing.T) {
		c := newContext()
		want := &models.Auth{Note: "ops"}
		c.Set(AuthKey, want)

		got, ok := AuthFrom(c)
		require.True(t, ok)
		assert.Same(t, want, got)
	})
}

func TestRequirePermissions(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	run := func(needed models.Permissions, auth any) error {
		c := e.NewContext(
			httptest.NewRequest(http.MethodGet, "/", nil),
			httptest.NewRecorder(),
		)
		if auth != nil {
			c.Set(AuthKey, auth)
		}
		return RequirePermissions(needed)(ok)(c)
	}

	key := func(p models.Permissions) *models.Auth {
		return &models.Auth{Model: models.Model{ID: uuid.New()}, Permissions: p}
	}

	tests := []struct {
		name    string
		needed  models.Permissions
		auth    any
		expCode int
	}{
		{
			name:    "MissingAuth",
			needed:  models.Permissions{EntriesRead: true},
			expCode: http.StatusUnauthorized,
		},
		{
			name:    "NoPermissions",
			needed:  models.Permissions{EntriesRead: true},
			auth:    key(models.Permissions{}),
			expCode: http.StatusForbidden,
		},
		{
			name:    "OtherPermission",
			needed:  models.Permissions{FormManagement: true},
			auth:    key(models.Permissions{EntriesRead: true, CacheManagement: true}),
			expCode: http.StatusForbidden,
		},
		{
			name:    "OneOfTwo",
			needed:  models.Permissions{FormManagement: true, EntriesRead: true},
			auth:    key(models.Permissions{EntriesRead: true}),
			expCode: http.StatusForbidden,
		},
		{
			name:   "Granted",
			needed: models.Permissions{EntriesRead: true},
			auth:   key(models.Permissions{EntriesRead: true}),
		},
		{
			name:   "GrantedWithExtra",
			needed: models.Permissions{CacheManagement: true},
			auth:   key(models.Permissions{CacheManagement: true, FormManagement: true}),
		},
		{
			name:   "NothingNeeded",
			needed: models.Permissions{},
			auth:   key(models.Permissions{}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.needed, tt.auth)
			if tt.expCode == 0 {
				require.NoError(t, err)
				return
			}

			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.expCode, httpErr.Code)
		})
	}
}
