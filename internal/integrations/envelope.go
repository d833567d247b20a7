package integrations

import (
	"context"
	"fmt"
	"net/http"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

// Message of every failure that never got an answer from the vendor
const TransportErrorLabel = "submitWpError"

func Success(details fetch.Details, message string) types.Envelope {
	return types.NewEnvelope(details.Code, message, types.EnvelopeData{
		Body: details.Decoded(),
	})
}

// Error envelope for a failed vendor call. Transport failures become a 502
// with the generic label whatever message the caller picked.
func Failure(
	ctx context.Context,
	integration string,
	details fetch.Details,
	message string,
	fieldErrors types.FieldErrors,
) types.Envelope {
	log := logger.For(integration)

	if details.Err != nil {
		log.ErrorContext(ctx, "integration unreachable", "url", details.URL, "error", details.Err)
		return types.NewEnvelope(http.StatusBadGateway, TransportErrorLabel, types.EnvelopeData{})
	}

	code := details.Code
	if code == 0 || (code >= 200 && code <= 299) {
		code = http.StatusInternalServerError
	}

	err := fmt.Errorf("%w: %s answered %d", types.ErrIntegrationRejection, details.URL, details.Code)
	log.WarnContext(ctx, "integration rejected submission",
		"error", err,
		"label", message,
		"body", string(details.Body),
	)

	return types.NewEnvelope(code, message, types.EnvelopeData{
		Validation: fieldErrors,
		Body:       details.Decoded(),
	})
}
