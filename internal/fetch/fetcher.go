package fetch

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/fetch")

//go:generate mockgen -destination ./mock/mock.go -package mock . Fetcher

// Sends a single vendor request. Transport failures are reported through Details.Err,
// never retried.
type Fetcher interface {
	Fetch(ctx context.Context, req *Request) Details
}

type Request struct {
	Header http.Header
	Method string
	URL    string
	// Basic auth is sent when Username is set
	Username string
	Password string
	// Sent as "Authorization: Bearer <token>" when set
	Bearer string
	Body   []byte
}
