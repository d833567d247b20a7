package submission_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbridge/formbridge/internal/submission"
)

func multipartForm(t *testing.T, files map[string][]string) *multipart.Form {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, names := range files {
		for _, name := range names {
			part, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("content of " + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm
}

func TestTempFiles(t *testing.T) {
	base := t.TempDir()

	tmp, err := submission.NewTempFiles(base)
	require.NoError(t, err)

	form := multipartForm(t, map[string][]string{
		"cv":    {"cv.pdf", "cv.pdf"},
		"photo": {`..\..\evil.png`},
	})

	files, err := tmp.SaveAll(form)
	require.NoError(t, err)
	require.Len(t, files, 2)

	paths := files.Paths()
	require.Len(t, paths, 3)
	for _, path := range paths {
		rel, err := filepath.Rel(tmp.Dir(), path)
		require.NoError(t, err)
		assert.NotContains(t, rel, "..")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "content of ")
	}

	tmp.Cleanup()
	_, err = os.Stat(tmp.Dir())
	require.ErrorIs(t, err, os.ErrNotExist)

	tmp.Cleanup()
}
