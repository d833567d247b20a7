package submission

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

// Request scoped directory for uploaded attachments
type TempFiles struct {
	dir string
}

func NewTempFiles(base string) (*TempFiles, error) {
	dir := filepath.Join(base, "formbridge-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}

	return &TempFiles{dir: dir}, nil
}

func (t *TempFiles) Dir() string {
	return t.dir
}

// Saves one uploaded file under its own sub directory so equal names never collide
func (t *TempFiles) Save(header *multipart.FileHeader) (string, error) {
	name := filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}

	sub := filepath.Join(t.dir, uuid.NewString())
	if err := os.MkdirAll(sub, 0o700); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}
	defer src.Close()

	path := filepath.Join(sub, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}

	return path, nil
}

// Saves every file of a multipart form grouped by field
func (t *TempFiles) SaveAll(form *multipart.Form) (types.Files, error) {
	files := types.Files{}
	for field, headers := range form.File {
		fileField := types.FileField{Name: field}
		for _, header := range headers {
			path, err := t.Save(header)
			if err != nil {
				return files, err
			}
			fileField.Paths = append(fileField.Paths, path)
		}
		files = append(files, fileField)
	}

	return files, nil
}

// Removes the directory and everything in it. Safe to call more than once.
func (t *TempFiles) Cleanup() {
	if t == nil || t.dir == "" {
		return
	}

	if err := os.RemoveAll(t.dir); err != nil {
		logger.Logger.Error("failed to remove temp files", "dir", t.dir, "error", err)
	}
}
