package v1

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	servermiddleware "github.com/formbridge/formbridge/cmd/server/internal/middleware"
	"github.com/formbridge/formbridge/cmd/server/internal/response"
	"github.com/formbridge/formbridge/cmd/server/internal/srverr"
	"github.com/formbridge/formbridge/internal/audit"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

type CacheClearRequest struct {
	Type string `json:"type" validate:"required"`
}

// Drops the cached vendor items of one integration
func (h *Handler) CacheClear(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CacheClear")
	defer span.End()

	auth, ok := servermiddleware.AuthFrom(c)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("auth: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	var rdata CacheClearRequest

	span.AddEvent("parsing request body")
	if err := c.Bind(&rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "failed to parse request data")
		return echo.NewHTTPError(http.StatusBadRequest, types.StringError("failed to parse request data"))
	}

	if err := c.Validate(rdata); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "failed to validate request data")
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	span.SetAttributes(
		attribute.String("auth.id", auth.ID.String()),
		attribute.String("integration", rdata.Type),
	)

	client, err := h.registry.Get(rdata.Type)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "unknown integration")
		return echo.NewHTTPError(http.StatusBadRequest, types.FieldsError(
			"unknown integration", map[string]string{"type": "must be a configured integration"},
		))
	}

	err = h.registry.ClearCache(ctx, rdata.Type)
	if err != nil && !errors.Is(err, integrations.ErrUnknownIntegration) {
		logger.Logger.ErrorContext(ctx, "failed to clear cache", "integration", rdata.Type, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to clear cache")
		return response.InternalServerError
	}

	audit.LogCacheCleared(audit.Context{Integration: &rdata.Type}, client.CacheKeys())

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "cleared cache")
	return c.JSON(http.StatusOK, response.Message{
		Message: fmt.Sprintf("%s cache cleared", rdata.Type),
	})
}
