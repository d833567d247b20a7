package integrations

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/formbridge/formbridge/internal/types"
	"github.com/formbridge/formbridge/internal/validator"
)

// Attachment embedded into a JSON payload as base64
type InlineFile struct {
	Name    string
	Content string
}

func ReadInline(path string) (InlineFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return InlineFile{}, fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}

	content := base64.StdEncoding.EncodeToString(raw)
	if !validator.ValidateInlineAttachmentSize(len(content)) {
		return InlineFile{}, fmt.Errorf("%w: %s is larger than %d bytes",
			types.ErrLocalFile, filepath.Base(path), validator.MaxInlineAttachmentBytes)
	}

	return InlineFile{Name: filepath.Base(path), Content: content}, nil
}
