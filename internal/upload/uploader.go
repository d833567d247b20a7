package upload

import (
	"context"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/internal/hash"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/upload")

const defaultContentType = "application/octet-stream"

// Where and how an object is stored
type Object struct {
	Key         string
	ContentType string
	Length      int64
}

//go:generate mockgen -destination ./mock/mock.go -package mock . Uploader

// Attachment persistence
type Uploader interface {
	// Create or overwrite the object at object.Key
	Upload(ctx context.Context, reader io.ReadSeeker, object Object) error
	// Only used to skip duplicate uploads. May always return false.
	Exists(ctx context.Context, key string) (bool, error)
	// Bucket or container name, for audit logs
	StoreIdentifier(ctx context.Context) (string, error)
	// Anonymous readonly URL for downloading the object
	PresignedReadURL(ctx context.Context, key string, duration time.Duration) (string, error)
}

// Object key for an attachment: prefix/sha256/name. Identical uploads of the
// same file name land on the same key.
func Key(prefix, sum, name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20:
			return -1
		}
		return r
	}, filepath.Base(name))

	return path.Join(prefix, sum, name)
}

func ContentType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}

	return defaultContentType
}

// Uploads reader under a content addressed key unless the key already exists.
// Reader is rewound before hashing and before uploading.
func Hashed(
	ctx context.Context,
	u Uploader,
	prefix string,
	name string,
	reader io.ReadSeeker,
	length int64,
) (string, error) {
	ctx, span := tracer.Start(ctx, "Hashed", trace.WithAttributes(
		attribute.String("prefix", prefix),
		attribute.String("name", name),
	))
	defer span.End()

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to seek to start")
		return "", err
	}

	sum, err := hash.Reader(ctx, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to hash reader")
		return "", err
	}

	key := Key(prefix, sum, name)
	span.SetAttributes(attribute.String("key", key))

	exists, err := u.Exists(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check if object exists")
		return "", err
	}

	if exists {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "found existing object")
		return key, nil
	}

	if _, err = reader.Seek(0, io.SeekStart); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to seek to start")
		return "", err
	}

	err = u.Upload(ctx, reader, Object{Key: key, ContentType: ContentType(name), Length: length})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload object")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded object by hash")
	return key, nil
}

// Hashed for a local file. The file's base name becomes the object name.
func HashedFile(ctx context.Context, u Uploader, prefix string, filePath string) (string, error) {
	ctx, span := tracer.Start(ctx, "HashedFile", trace.WithAttributes(
		attribute.String("filePath", filePath),
	))
	defer span.End()

	f, err := os.Open(filePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open file")
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to stat file")
		return "", err
	}

	key, err := Hashed(ctx, u, prefix, filepath.Base(filePath), f, stat.Size())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded file")
	return key, nil
}
