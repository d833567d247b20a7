package v1

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/cmd/server/internal/response"
	"github.com/formbridge/formbridge/internal/audit"
	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/submission"
	"github.com/formbridge/formbridge/internal/types"
)

func (h *Handler) ListForms(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListForms")
	defer span.End()

	forms, err := h.forms.List(ctx)
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to list forms", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list forms")
		return response.InternalServerError
	}

	out := make([]config.Form, 0, len(forms))
	for _, form := range forms {
		out = append(out, form.Config())
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed forms")
	return c.JSON(http.StatusOK, response.NewList(out))
}

func (h *Handler) GetFormSettings(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetFormSettings", trace.WithAttributes(
		attribute.String("form", c.Param("form_id")),
	))
	defer span.End()

	form, err := h.forms.Form(ctx, c.Param("form_id"))
	if errors.Is(err, submission.ErrFormNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "form not found")
		return response.NotFoundError
	} else if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to load form", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load form")
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "found form")
	return c.JSON(http.StatusOK, form)
}

// An empty value deletes the setting
type FormSettingsRequest struct {
	Settings map[string]string `json:"settings" validate:"required,min=1"`
}

func (h *Handler) UpdateFormSettings(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "UpdateFormSettings", trace.WithAttributes(
		attribute.String("form", c.Param("form_id")),
	))
	defer span.End()

	formID := c.Param("form_id")

	var rdata FormSettingsRequest
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

	auditContext := audit.Context{FormID: &formID}

	keys := make([]string, 0, len(rdata.Settings))
	for key := range rdata.Settings {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := rdata.Settings[key]

		var err error
		if value == "" {
			err = h.forms.DeleteFormSetting(ctx, formID, key)
		} else {
			err = h.forms.SetFormSetting(ctx, formID, key, value)
		}

		if errors.Is(err, submission.ErrFormNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Ok, "form not found")
			return response.NotFoundError
		} else if err != nil {
			logger.Logger.ErrorContext(ctx, "failed to update form setting",
				"form", formID, "key", key, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to update form setting")
			return response.InternalServerError
		}

		audit.LogFormSettingsModified(auditContext, key, value == "")
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "updated form settings")
	return c.JSON(http.StatusOK, response.Message{
		Message: fmt.Sprintf("form %s saved", formID),
	})
}
