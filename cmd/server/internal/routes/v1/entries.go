package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/cmd/server/internal/models"
	"github.com/formbridge/formbridge/cmd/server/internal/response"
	"github.com/formbridge/formbridge/cmd/server/internal/srverr"
	"github.com/formbridge/formbridge/internal/audit"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, types.FieldsError(
			"invalid query", map[string]string{name: "must be a non negative integer"},
		))
	}

	return v, nil
}

// Newest first. ?limit= and ?offset= page through the list.
func (h *Handler) ListEntries(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListEntries", trace.WithAttributes(
		attribute.String("form", c.Param("form_id")),
	))
	defer span.End()

	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "bad limit")
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "bad offset")
		return err
	}

	entries, err := models.ListEntries(ctx, h.DB, c.Param("form_id"), limit, offset)
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to list entries", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list entries")
		return response.InternalServerError
	}

	out := make([]response.Entry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, response.NewEntry(entry.ID, entry.FormID, entry.EntryValue, entry.CreatedAt))
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed entries")
	return c.JSON(http.StatusOK, response.NewList(out))
}

func (h *Handler) GetEntry(c echo.Context) error {
	_, span := tracer.Start(c.Request().Context(), "GetEntry")
	defer span.End()

	entry, ok := c.Get("entry").(*models.Entry)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("entry: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "found entry")
	return c.JSON(
		http.StatusOK,
		response.NewEntry(entry.ID, entry.FormID, entry.EntryValue, entry.CreatedAt),
	)
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "DeleteEntry")
	defer span.End()

	entry, ok := c.Get("entry").(*models.Entry)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("entry: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	deleted, err := models.DeleteEntry(ctx, h.DB, entry.ID)
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to delete entry", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete entry")
		return response.InternalServerError
	}
	if !deleted {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "entry already gone")
		return response.NotFoundError
	}

	audit.LogEntryDeleted(audit.Context{FormID: &entry.FormID}, entry.ID.String())

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "deleted entry")
	return c.NoContent(http.StatusNoContent)
}
