package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/formbridge/formbridge/internal/types"
)

// JSON encoded request with the matching content headers
func NewJSONRequest(method, url string, body any) (*Request, error) {
	req := &Request{
		Method: method,
		URL:    url,
		Header: http.Header{},
	}
	req.Header.Set("Accept", "application/json")

	if body == nil {
		return req, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Body = raw
	return req, nil
}

// Multipart form upload of a single local file plus plain fields
func NewFileRequest(
	url string,
	fileField string,
	path string,
	fields map[string]string,
) (*Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(fileField, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}

	if _, err = io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}

	for name, value := range fields {
		if err = w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write multipart field %s: %w", name, err)
		}
	}

	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req := &Request{
		Method: http.MethodPost,
		URL:    url,
		Header: http.Header{},
		Body:   buf.Bytes(),
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return req, nil
}
