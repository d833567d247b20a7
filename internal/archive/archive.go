// Package archive copies submitted attachments to long term storage.
package archive

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/internal/audit"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
	"github.com/formbridge/formbridge/internal/upload"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/archive")

// Presigned links in notification mails stay valid this long
const DefaultLinkTTL = 7 * 24 * time.Hour

var ErrNoUploader = errors.New("archive has no uploader")

type ArchivedFile struct {
	Field string `json:"field"`
	Name  string `json:"name"`
	Key   string `json:"key"`
	// Empty when the store could not sign a link
	URL string `json:"url,omitempty"`
}

type Archiver struct {
	uploader upload.Uploader
	prefix   string
	linkTTL  time.Duration
}

func New(u upload.Uploader, prefix string, linkTTL time.Duration) *Archiver {
	if linkTTL <= 0 {
		linkTTL = DefaultLinkTTL
	}

	return &Archiver{uploader: u, prefix: prefix, linkTTL: linkTTL}
}

// Uploads every file of a submission under prefix/forms/<formID>. A file that
// cannot be archived is logged and left out; the submission still goes ahead.
func (a *Archiver) Archive(
	ctx context.Context,
	auditContext audit.Context,
	formID string,
	entryID string,
	files types.Files,
) ([]ArchivedFile, error) {
	ctx, span := tracer.Start(ctx, "Archiver.Archive", trace.WithAttributes(
		attribute.String("formID", formID),
		attribute.Int("fields", len(files)),
	))
	defer span.End()

	if a == nil || a.uploader == nil {
		span.RecordError(ErrNoUploader)
		span.SetStatus(codes.Error, "no uploader")
		return nil, ErrNoUploader
	}

	log := logger.For("archive").With(slog.String("formID", formID))

	identifier, err := a.uploader.StoreIdentifier(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get identifier")
		return nil, err
	}

	prefix := path.Join(a.prefix, "forms", formID)
	archived := []ArchivedFile{}
	for _, field := range files {
		for _, filePath := range field.Paths {
			key, err := upload.HashedFile(ctx, a.uploader, prefix, filePath)
			if err != nil {
				span.AddEvent("skipped file", trace.WithAttributes(attribute.String("field", field.Name)))
				log.WarnContext(ctx, "failed to archive attachment", "field", field.Name, "error", err)
				continue
			}

			file := ArchivedFile{Field: field.Name, Name: filepath.Base(filePath), Key: key}
			file.URL, err = a.uploader.PresignedReadURL(ctx, key, a.linkTTL)
			if err != nil {
				log.WarnContext(ctx, "failed to sign attachment link", "key", key, "error", err)
			}

			audit.LogFileArchived(auditContext, identifier, key, field.Name, entryID)
			archived = append(archived, file)
		}
	}

	span.SetAttributes(attribute.Int("archived", len(archived)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "archived files")
	return archived, nil
}
