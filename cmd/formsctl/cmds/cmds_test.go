package cmds

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbridge/formbridge/internal/exiterr"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func adminServer(t *testing.T, code int, response string) (*httptest.Server, *recorded) {
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, token, ok := r.BasicAuth()
		if !ok || id != "key" || token != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.body))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return srv, rec
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Setenv("FORMBRIDGE_API_KEY_ID", "key")
	t.Setenv("FORMBRIDGE_API_TOKEN", "secret")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--server", srv.URL}, args...))

	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCacheClear(t *testing.T) {
	srv, rec := adminServer(t, http.StatusOK, `{"message": "hubspot cache cleared"}`)

	out, err := run(t, srv, "cache", "clear", "hubspot")
	require.NoError(t, err)

	assert.Equal(t, "hubspot cache cleared\n", out)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/v1/cache-clear/", rec.path)
	assert.Equal(t, map[string]any{"type": "hubspot"}, rec.body)
}

func TestItemsList(t *testing.T) {
	srv, rec := adminServer(t, http.StatusOK,
		`{"items": [{"label": "Careers", "value": "guid---3"}, {"label": "Contact", "value": "guid---1"}], "count": 2}`)

	out, err := run(t, srv, "items", "list", "hubspot")
	require.NoError(t, err)

	assert.Equal(t, "/v1/integration-items/hubspot/", rec.path)
	assert.Contains(t, out, "guid---3  Careers")
	assert.Contains(t, out, "guid---1  Contact")
}

func TestEntriesList(t *testing.T) {
	srv, rec := adminServer(t, http.StatusOK, `{"items": [
		{"id": "a", "form_id": "13", "created_at": "2026-01-02T03:04:05Z", "entry_value": {"params": {"email": "ada@example.com"}}}
	], "count": 1}`)

	out, err := run(t, srv, "entries", "list", "13", "--limit", "5")
	require.NoError(t, err)

	assert.Equal(t, "/v1/entries/13/", rec.path)
	assert.Equal(t, "limit=5&offset=0", rec.query)

	var e entry
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	assert.Equal(t, "13", e.FormID)
	assert.JSONEq(t, `{"params": {"email": "ada@example.com"}}`, string(e.Value))
}

func TestHubspotSetContact(t *testing.T) {
	t.Run("Posted", func(t *testing.T) {
		srv, rec := adminServer(t, http.StatusOK, `{"status": "success", "code": 200, "message": "Contact saved."}`)

		out, err := run(t, srv, "hubspot", "set-contact", "ada@example.com",
			"--property", "firstname=Ada", "--property", "lastname=Lovelace")
		require.NoError(t, err)

		assert.Equal(t, "Contact saved.\n", out)
		assert.Equal(t, map[string]any{
			"email":      "ada@example.com",
			"properties": map[string]any{"firstname": "Ada", "lastname": "Lovelace"},
		}, rec.body)
	})

	t.Run("BadProperty", func(t *testing.T) {
		srv, _ := adminServer(t, http.StatusOK, `{}`)

		_, err := run(t, srv, "hubspot", "set-contact", "ada@example.com", "--property", "firstname")
		assert.Equal(t, exiterr.CodeConfig, exiterr.Code(err))
	})
}

func TestExitCodes(t *testing.T) {
	t.Run("Rejected", func(t *testing.T) {
		srv, _ := adminServer(t, http.StatusBadRequest, `{"message": "unknown integration"}`)

		_, err := run(t, srv, "cache", "clear", "salesforce")
		require.Error(t, err)
		assert.Equal(t, exiterr.CodeRejected, exiterr.Code(err))
		assert.Contains(t, err.Error(), "unknown integration")
	})

	t.Run("Unavailable", func(t *testing.T) {
		srv, _ := adminServer(t, http.StatusOK, `{}`)
		srv.Close()

		_, err := run(t, srv, "cache", "clear", "hubspot")
		assert.Equal(t, exiterr.CodeUnavailable, exiterr.Code(err))
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		srv, _ := adminServer(t, http.StatusOK, `{}`)
		t.Setenv("FORMBRIDGE_API_TOKEN", "")

		var out bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--server", srv.URL, "--key-id", "key", "cache", "clear", "hubspot"})

		err := cmd.ExecuteContext(t.Context())
		assert.Equal(t, exiterr.CodeConfig, exiterr.Code(err))
	})
}
