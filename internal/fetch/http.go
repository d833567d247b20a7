package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/internal/types"
)

// Vendor responses larger than this are truncated
const maxBodyBytes = 10 << 20

// Ensure HTTPFetcher implements Fetcher interface.
var _ Fetcher = (*HTTPFetcher)(nil)

type HTTPFetcher struct {
	client *retryablehttp.Client
}

// Single attempt client. Submissions must reach a vendor at most once per request.
func NewHTTPFetcher(timeout time.Duration, logger *slog.Logger) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(_ context.Context, _ *http.Response, _ error) (bool, error) {
		return false, nil
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.HTTPClient.Timeout = timeout
	client.Logger = nil
	if logger != nil {
		client.Logger = logger
	}

	return &HTTPFetcher{client: client}
}

func NewHTTPFetcherFromClient(client *retryablehttp.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, r *Request) Details {
	ctx, span := tracer.Start(ctx, "HTTPFetcher.Fetch", trace.WithAttributes(
		attribute.String("method", r.Method),
		attribute.String("url", r.URL),
	))
	defer span.End()

	details := Details{URL: r.URL}

	var body any
	if r.Body != nil {
		body = r.Body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct request")
		details.Err = fmt.Errorf("%w: %w", types.ErrIntegrationTransport, err)
		return details
	}

	for name, values := range r.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	if r.Username != "" {
		req.SetBasicAuth(r.Username, r.Password)
	}

	if r.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.Bearer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reach vendor")
		details.Err = fmt.Errorf("%w: %w", types.ErrIntegrationTransport, err)
		return details
	}
	defer resp.Body.Close()

	details.Code = resp.StatusCode
	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	details.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read vendor response")
		details.Err = fmt.Errorf("%w: %w", types.ErrIntegrationTransport, err)
		return details
	}

	if !details.OK() {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "vendor rejected request")
		return details
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched")
	return details
}
