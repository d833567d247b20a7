package workable_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbridge/formbridge/internal/cache"
	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/integrations/workable"
	"github.com/formbridge/formbridge/internal/types"
)

type vendor struct {
	respond   func(c echo.Context) error
	candidate map[string]any
	jobsCalls int
}

func newVendor(t *testing.T) (*vendor, *httptest.Server) {
	v := &vendor{}

	e := echo.New()
	e.GET("/jobs", func(c echo.Context) error {
		assert.Equal(t, "published", c.QueryParam("state"))
		assert.Equal(t, "Bearer wk-key", c.Request().Header.Get("Authorization"))
		v.jobsCalls++

		return c.JSON(http.StatusOK, map[string]any{
			"jobs": []map[string]any{{"shortcode": "GROOV003", "title": "Sales"}},
		})
	})
	e.GET("/jobs/:shortcode/application_form", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"form_fields": []map[string]any{{"key": "phone", "required": false}},
			"questions":   []map[string]any{{"id": "q1", "body": "Why us?"}},
		})
	})
	e.POST("/jobs/:shortcode/candidates", func(c echo.Context) error {
		v.candidate = map[string]any{}
		if err := json.NewDecoder(c.Request().Body).Decode(&v.candidate); err != nil {
			return err
		}

		if v.respond != nil {
			return v.respond(c)
		}

		return c.JSON(http.StatusCreated, map[string]any{"status": "created"})
	})

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return v, server
}

func newClient(server *httptest.Server) *workable.Client {
	return workable.New(
		workable.Config{APIKey: "wk-key", Subdomain: "acme", BaseURL: server.URL},
		fetch.NewHTTPFetcher(5*time.Second, nil),
		integrations.NewItemsCache(cache.NewMemoryStore(), time.Hour, false),
	)
}

func TestGetItems(t *testing.T) {
	ctx := context.Background()
	v, server := newVendor(t)
	client := newClient(server)

	items := client.GetItems(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, "Sales", items["GROOV003"].Title)
	assert.Contains(t, string(items["GROOV003"].Fields), "Why us?")

	client.GetItems(ctx)
	assert.Equal(t, 1, v.jobsCalls)
}

func TestPostApplication(t *testing.T) {
	ctx := context.Background()

	params := types.Params{
		{Name: types.ParamFormPostID, Value: "42"},
		{Name: "firstname", Value: "Jane"},
		{Name: "lastname", Value: "Doe"},
		{Name: "email", Value: "jane@example.com"},
		{Name: "q1", Value: "Because"},
	}

	t.Run("Created", func(t *testing.T) {
		v, server := newVendor(t)

		dir := t.TempDir()
		other := filepath.Join(dir, "portfolio.pdf")
		cv := filepath.Join(dir, "cv.pdf")
		require.NoError(t, os.WriteFile(other, []byte("other"), 0o600))
		require.NoError(t, os.WriteFile(cv, []byte("cv"), 0o600))

		files := types.Files{
			{Name: "portfolio", Paths: []string{other}},
			{Name: workable.ResumeField, Paths: []string{cv}},
		}

		envelope := newClient(server).PostApplication(ctx, "GROOV003", params, files, "42")
		require.Equal(t, types.StatusSuccess, envelope.Status)
		assert.Equal(t, http.StatusCreated, envelope.Code)
		assert.Equal(t, "workableSuccess", envelope.Message)

		assert.Equal(t, false, v.candidate["sourced"])
		assert.Equal(t, map[string]any{
			"name":      "Jane Doe",
			"firstname": "Jane",
			"lastname":  "Doe",
			"email":     "jane@example.com",
			"answers": []any{
				map[string]any{"question_key": "q1", "body": "Because"},
			},
			"resume": map[string]any{
				"name": "cv.pdf",
				"data": base64.StdEncoding.EncodeToString([]byte("cv")),
			},
		}, v.candidate["candidate"])
	})

	t.Run("ValidationFailed", func(t *testing.T) {
		v, server := newVendor(t)
		v.respond = func(c echo.Context) error {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{
				"error": "Validation failed: Email is invalid, Firstname can't be blank, Cover letter is invalid",
			})
		}

		envelope := newClient(server).PostApplication(ctx, "GROOV003", params, nil, "42")
		assert.Equal(t, types.StatusError, envelope.Status)
		assert.Equal(t, http.StatusUnprocessableEntity, envelope.Code)
		assert.Equal(t, "workableValidationError", envelope.Message)
		assert.Equal(t, types.FieldErrors{
			"email":        "validationEmail",
			"firstname":    "validationRequired",
			"cover_letter": "validationInvalid",
		}, envelope.Data.Validation)
	})

	t.Run("NotFound", func(t *testing.T) {
		v, server := newVendor(t)
		v.respond = func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "Not found"})
		}

		envelope := newClient(server).PostApplication(ctx, "MISSING", params, nil, "42")
		assert.Equal(t, "workableJobNotFoundError", envelope.Message)
		assert.Nil(t, envelope.Data.Validation)
	})
}
