package upload

import (
	"context"
	"io"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ensure RetryUploader implements Uploader interface.
var _ Uploader = (*RetryUploader)(nil)

// Wraps every Uploader call in a backoff loop
type RetryUploader struct {
	uploader Uploader
	backoff  func() retry.Backoff
}

func NewRetryUploaderBackoff(uploader Uploader, backoff func() retry.Backoff) *RetryUploader {
	return &RetryUploader{
		uploader: uploader,
		backoff:  backoff,
	}
}

// Archiving runs inside the submit request, so the whole loop is capped at 20s
func NewRetryUploader(uploader Uploader) *RetryUploader {
	return &RetryUploader{
		uploader: uploader,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(250 * time.Millisecond)
			b = retry.WithMaxDuration(20*time.Second, b)
			return b
		},
	}
}

func retried[T any](
	ctx context.Context,
	r *RetryUploader,
	name string,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	ctx, span := tracer.Start(ctx, "RetryUploader."+name)
	defer span.End()

	attempts := 0
	var out T
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempts++
		//nolint:govet // shadow: intentionally shadow ctx and span to avoid using the incorrect one.
		ctx, span := tracer.Start(ctx, "RetryUploader."+name+".Retry", trace.WithAttributes(
			attribute.Int("attempt", attempts),
		))
		defer span.End()

		var err error
		out, err = fn(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "attempt failed")
			return retry.RetryableError(err)
		}

		span.RecordError(nil)
		span.SetStatus(codes.Ok, "attempt succeeded")
		return nil
	})
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retries exhausted")
		var zero T
		return zero, err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "done")
	return out, nil
}

func (r *RetryUploader) Exists(ctx context.Context, key string) (bool, error) {
	return retried(ctx, r, "Exists", func(ctx context.Context) (bool, error) {
		return r.uploader.Exists(ctx, key)
	})
}

func (r *RetryUploader) StoreIdentifier(ctx context.Context) (string, error) {
	return retried(ctx, r, "StoreIdentifier", r.uploader.StoreIdentifier)
}

func (r *RetryUploader) Upload(ctx context.Context, reader io.ReadSeeker, object Object) error {
	_, err := retried(ctx, r, "Upload", func(ctx context.Context) (struct{}, error) {
		// a failed attempt may have consumed part of the reader
		if _, err := reader.Seek(0, io.SeekStart); err != nil {
			return struct{}{}, err
		}

		return struct{}{}, r.uploader.Upload(ctx, reader, object)
	})
	return err
}

func (r *RetryUploader) PresignedReadURL(
	ctx context.Context,
	key string,
	duration time.Duration,
) (string, error) {
	return retried(ctx, r, "PresignedReadURL", func(ctx context.Context) (string, error) {
		return r.uploader.PresignedReadURL(ctx, key, duration)
	})
}
