package greenhouse_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
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
	"github.com/formbridge/formbridge/internal/integrations/greenhouse"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

type vendor struct {
	respond     func(c echo.Context) error
	application map[string]any
	jobsCalls   int
}

func newVendor(t *testing.T) (*vendor, *httptest.Server) {
	v := &vendor{}

	e := echo.New()
	board := e.Group("/board-token")
	board.GET("/jobs", func(c echo.Context) error {
		v.jobsCalls++
		return c.JSON(http.StatusOK, map[string]any{
			"jobs": []map[string]any{
				{"id": 127817, "title": "Go engineer"},
				{"id": 5, "title": "Gone"},
			},
		})
	})
	board.GET("/jobs/:id", func(c echo.Context) error {
		if c.Param("id") == "5" {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "Job not found"})
		}
		assert.Equal(t, "true", c.QueryParam("questions"))

		return c.JSON(http.StatusOK, map[string]any{
			"id":        127817,
			"questions": []map[string]any{{"label": "First Name", "required": true}},
		})
	})
	board.POST("/jobs/:id", func(c echo.Context) error {
		user, _, ok := c.Request().BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "gh-key", user)

		v.application = map[string]any{}
		if err := json.NewDecoder(c.Request().Body).Decode(&v.application); err != nil {
			return err
		}

		if v.respond != nil {
			return v.respond(c)
		}

		return c.JSON(http.StatusOK, map[string]any{"success": "Candidate saved successfully"})
	})

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return v, server
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := logger.Logger
	logger.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { logger.Logger = prev })

	return &buf
}

func newClient(server *httptest.Server) *greenhouse.Client {
	return greenhouse.New(
		greenhouse.Config{APIKey: "gh-key", BoardToken: "board-token", BaseURL: server.URL},
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
	assert.Equal(t, "Go engineer", items["127817"].Title)
	assert.JSONEq(t, `[{"label":"First Name","required":true}]`, string(items["127817"].Fields))

	item, ok := client.GetItem(ctx, "127817")
	assert.True(t, ok)
	assert.Equal(t, "127817", item.ID)
	assert.Equal(t, 1, v.jobsCalls)
}

func TestPostApplication(t *testing.T) {
	ctx := context.Background()

	params := types.Params{
		{Name: types.ParamFormPostID, Value: "42"},
		{Name: "first_name", Value: "Jane"},
		{Name: "email", Value: "jane@example.com"},
		{Name: "skills", Value: "go---sql", Type: types.FieldTypeCheckbox},
		{Name: "empty", Value: ""},
	}

	t.Run("Applied", func(t *testing.T) {
		v, server := newVendor(t)

		dir := t.TempDir()
		resume := filepath.Join(dir, "resume.pdf")
		require.NoError(t, os.WriteFile(resume, []byte("%PDF-1.4"), 0o600))

		files := types.Files{
			{Name: "resume", Paths: []string{resume}},
			{Name: "cover_letter", Paths: []string{filepath.Join(dir, "missing.pdf")}},
		}

		envelope := newClient(server).PostApplication(ctx, "127817", params, files, "42")
		require.Equal(t, types.StatusSuccess, envelope.Status)
		assert.Equal(t, "greenhouseSuccess", envelope.Message)

		assert.Equal(t, map[string]any{
			"first_name":              "Jane",
			"email":                   "jane@example.com",
			"skills":                  []any{"go", "sql"},
			"resume_content":          base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
			"resume_content_filename": "resume.pdf",
		}, v.application)
	})

	t.Run("OneAttachmentPerField", func(t *testing.T) {
		v, server := newVendor(t)
		logs := captureLogs(t)

		dir := t.TempDir()
		var paths []string
		for _, name := range []string{"first.pdf", "second.pdf", "third.pdf"} {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(name), 0o600))
			paths = append(paths, path)
		}

		files := types.Files{{Name: "resume", Paths: paths}}

		envelope := newClient(server).PostApplication(ctx, "127817", params, files, "42")
		require.Equal(t, types.StatusSuccess, envelope.Status)

		assert.Equal(t, "first.pdf", v.application["resume_content_filename"])
		assert.Contains(t, logs.String(), `"msg":"dropping extra attachments"`)
		assert.Contains(t, logs.String(), `"field":"resume"`)
		assert.Contains(t, logs.String(), `"dropped":2`)
	})

	t.Run("InvalidAttributes", func(t *testing.T) {
		v, server := newVendor(t)
		v.respond = func(c echo.Context) error {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "Invalid attributes: first_name, email"})
		}

		envelope := newClient(server).PostApplication(ctx, "127817", params, nil, "42")
		assert.Equal(t, types.StatusError, envelope.Status)
		assert.Equal(t, "greenhouseInvalidAttributesError", envelope.Message)
		assert.Equal(t, types.FieldErrors{
			"first_name": "validationRequired",
			"email":      "validationRequired",
		}, envelope.Data.Validation)
	})

	t.Run("JobNotFound", func(t *testing.T) {
		v, server := newVendor(t)
		v.respond = func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "Job not found"})
		}

		envelope := newClient(server).PostApplication(ctx, "5", params, nil, "42")
		assert.Equal(t, http.StatusNotFound, envelope.Code)
		assert.Equal(t, "greenhouseJobNotFoundError", envelope.Message)
	})

	t.Run("UnknownError", func(t *testing.T) {
		v, server := newVendor(t)
		v.respond = func(c echo.Context) error {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{"error": "Something else"})
		}

		envelope := newClient(server).PostApplication(ctx, "127817", params, nil, "42")
		assert.Equal(t, http.StatusUnprocessableEntity, envelope.Code)
		assert.Equal(t, "submitWpError", envelope.Message)
		assert.Nil(t, envelope.Data.Validation)
	})
}
