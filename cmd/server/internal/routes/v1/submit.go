package v1

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	servermiddleware "github.com/formbridge/formbridge/cmd/server/internal/middleware"
	"github.com/formbridge/formbridge/cmd/server/internal/models"
	"github.com/formbridge/formbridge/internal/archive"
	"github.com/formbridge/formbridge/internal/audit"
	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/mailer"
	"github.com/formbridge/formbridge/internal/submission"
	"github.com/formbridge/formbridge/internal/types"
)

// What gets stored for forms that keep entries
type storedEntry struct {
	ReceivedAt  time.Time           `json:"received_at"`
	Integration string              `json:"integration"`
	ItemID      string              `json:"item_id"`
	RemoteIP    string              `json:"remote_ip"`
	Params      map[string]string   `json:"params"`
	Files       map[string][]string `json:"files,omitempty"`
}

// Public submit route of one integration. Always answers with an envelope whose
// code is also the HTTP status.
func (h *Handler) Submit(integration string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Submit", trace.WithAttributes(
			attribute.String("integration", integration),
		))
		defer span.End()

		log := logger.For("submit").With("integration", integration)
		lbls := h.labels

		temp, err := submission.NewTempFiles(h.tempDir)
		if err != nil {
			log.ErrorContext(ctx, "failed to create temp dir", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create temp dir")
			envelope := types.NewEnvelope(
				http.StatusInternalServerError, integrations.TransportErrorLabel, types.EnvelopeData{},
			)
			return c.JSON(envelope.Code, lbls.Localize(envelope))
		}
		defer temp.Cleanup()

		var envelope types.Envelope
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.ErrorContext(ctx, "recovered from panic while handling submission",
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()),
					)
					span.SetStatus(codes.Error, "panic while handling submission")
					envelope = types.NewEnvelope(
						http.StatusInternalServerError,
						integrations.TransportErrorLabel,
						types.EnvelopeData{},
					)
				}
			}()

			var settings map[string]string
			envelope, settings = h.handleSubmission(ctx, c, integration, temp)
			lbls = lbls.ForForm(settings)
		}()

		span.SetAttributes(
			attribute.Int("code", envelope.Code),
			attribute.String("status", string(envelope.Status)),
		)
		if envelope.IsSuccess() {
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "submitted")
		}

		return c.JSON(envelope.Code, lbls.Localize(envelope))
	}
}

func (h *Handler) handleSubmission(
	ctx context.Context,
	c echo.Context,
	integration string,
	temp *submission.TempFiles,
) (types.Envelope, map[string]string) {
	span := trace.SpanFromContext(ctx)
	log := logger.For("submit").With("integration", integration)
	remoteIP := c.RealIP()
	auditContext := audit.Context{Integration: &integration}

	span.AddEvent("parsing request body")
	params, files, err := parseSubmission(c, temp)
	if err != nil {
		log.InfoContext(ctx, "rejected unparsable submission", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Ok, "failed to parse submission")
		audit.LogVerificationFailed(auditContext, err.Error(), remoteIP)
		return types.NewEnvelope(http.StatusBadRequest, submission.LabelMalformed, types.EnvelopeData{}), nil
	}

	params = submission.Sanitize(params)

	span.AddEvent("verifying submission")
	form, err := h.verifier.Verify(
		ctx, integration, params, c.Request().Header.Get(submission.SignatureHeader),
	)
	if err != nil {
		var verificationErr *submission.VerificationError
		if errors.As(err, &verificationErr) {
			if formID := params.Value(types.ParamFormPostID); formID != "" {
				auditContext.FormID = &formID
			}
			audit.LogVerificationFailed(auditContext, verificationErr.Reason, remoteIP)
			span.SetStatus(codes.Ok, "submission failed verification")
			return verificationErr.Envelope(), nil
		}

		log.ErrorContext(ctx, "failed to verify submission", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to verify submission")
		return types.NewEnvelope(
			http.StatusInternalServerError, integrations.TransportErrorLabel, types.EnvelopeData{},
		), nil
	}

	auditContext.FormID = &form.ID
	span.SetAttributes(
		attribute.String("form.id", form.ID),
		attribute.String("form.item_id", form.ItemID),
	)

	client, err := h.registry.Get(integration)
	if err != nil {
		log.ErrorContext(ctx, "no client for verified submission", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no client")
		return types.NewEnvelope(
			http.StatusInternalServerError, integrations.TransportErrorLabel, types.EnvelopeData{},
		), form.Settings
	}

	audit.LogSubmissionReceived(auditContext, form.ItemID, remoteIP, len(params), len(files))

	ctx = integrations.WithRequestMeta(ctx, integrations.RequestMeta{
		RemoteIP:  remoteIP,
		UserAgent: c.Request().UserAgent(),
	})

	entryID := h.storeEntry(ctx, c, form, integration, params, files)
	archived := h.archiveFiles(ctx, auditContext, form, entryID, files)

	span.AddEvent("dispatching to integration")
	envelope := dispatch(ctx, client, form, params, files)

	h.metrics.Submission(ctx, integration, string(envelope.Status), envelope.Code)
	audit.LogSubmissionResult(auditContext, envelope)

	if !envelope.IsSuccess() {
		h.sendFallback(ctx, auditContext, form, integration, envelope, params, archived)
	}

	return envelope, form.Settings
}

// A panicking client is a failed dispatch like any other, so the fallback
// email still goes out.
func dispatch(
	ctx context.Context,
	client integrations.Client,
	form config.Form,
	params types.Params,
	files types.Files,
) (envelope types.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.For("submit").ErrorContext(ctx, "recovered from panic while dispatching submission",
				"form", form.ID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			trace.SpanFromContext(ctx).SetStatus(codes.Error, "panic while dispatching submission")
			envelope = types.NewEnvelope(
				http.StatusInternalServerError,
				integrations.TransportErrorLabel,
				types.EnvelopeData{},
			)
		}
	}()

	return client.PostApplication(ctx, form.ItemID, params, files, form.ID)
}

// JSON bodies map field names to params. Multipart bodies carry one param per
// non file part plus the uploaded files.
func parseSubmission(c echo.Context, temp *submission.TempFiles) (types.Params, types.Files, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	if !strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		raw, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to read body: %w", types.ErrRequestVerification, err)
		}

		params, err := submission.DecodeParams(raw)
		return params, nil, err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read multipart form: %w", types.ErrRequestVerification, err)
	}

	var params types.Params
	for _, fieldName := range slices.Sorted(maps.Keys(form.Value)) {
		for _, value := range form.Value[fieldName] {
			param, err := submission.DecodeField(fieldName, value)
			if err != nil {
				return nil, nil, err
			}
			params = append(params, param)
		}
	}

	files, err := temp.SaveAll(form)
	if err != nil {
		return nil, nil, err
	}

	return params, files, nil
}

// Returns the entry id or empty when the form does not keep entries or storing failed
func (h *Handler) storeEntry(
	ctx context.Context,
	c echo.Context,
	form config.Form,
	integration string,
	params types.Params,
	files types.Files,
) string {
	if form.Settings[SettingStoreEntries] != "true" {
		return ""
	}

	value := storedEntry{
		ReceivedAt:  servermiddleware.ReceivedAt(c),
		Integration: integration,
		ItemID:      form.ItemID,
		RemoteIP:    c.RealIP(),
		Params:      integrations.RemoveBookkeepingParams(params).Values(),
	}
	if len(files) > 0 {
		value.Files = make(map[string][]string, len(files))
		for _, field := range files {
			for _, path := range field.Paths {
				value.Files[field.Name] = append(value.Files[field.Name], filepath.Base(path))
			}
		}
	}

	entry, err := models.CreateEntry(ctx, h.DB, form.ID, value)
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to store entry", "form", form.ID, "error", err)
		return ""
	}

	return entry.ID.String()
}

func (h *Handler) archiveFiles(
	ctx context.Context,
	auditContext audit.Context,
	form config.Form,
	entryID string,
	files types.Files,
) []archive.ArchivedFile {
	if len(files) == 0 || h.archiver == nil || form.Settings[SettingArchiveAttachments] != "true" {
		return nil
	}

	archived, err := h.archiver.Archive(ctx, auditContext, form.ID, entryID, files)
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to archive attachments", "form", form.ID, "error", err)
	}

	return archived
}

func (h *Handler) sendFallback(
	ctx context.Context,
	auditContext audit.Context,
	form config.Form,
	integration string,
	envelope types.Envelope,
	params types.Params,
	archived []archive.ArchivedFile,
) {
	if h.mailer == nil {
		return
	}

	err := h.mailer.FallbackEmail(ctx, mailer.Fallback{
		Envelope:    h.labels.ForForm(form.Settings).Localize(envelope),
		FormID:      form.ID,
		Integration: integration,
		Params:      integrations.RemoveBookkeepingParams(params),
		Attachments: archived,
	})
	if err != nil {
		logger.Logger.ErrorContext(ctx, "failed to send fallback email", "form", form.ID, "error", err)
	}

	h.metrics.FallbackEmail(ctx, integration, err == nil)
	audit.LogFallbackEmail(auditContext, envelope.Message, len(archived), err)
}
