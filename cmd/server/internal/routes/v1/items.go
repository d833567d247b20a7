package v1

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/cmd/server/internal/response"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/types"
)

// Implemented by the hubspot client
type contactProperties interface {
	GetContactProperties(ctx context.Context) []string
	PostContactProperty(ctx context.Context, email string, properties map[string]string) types.Envelope
}

func (h *Handler) clientFromParam(c echo.Context) (integrations.Client, error) {
	client, err := h.registry.Get(c.Param("type"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, types.StringError("unknown integration"))
	}

	return client, nil
}

// Vendor items offered in the form picker, sorted by label
func (h *Handler) IntegrationItems(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "IntegrationItems", trace.WithAttributes(
		attribute.String("integration", c.Param("type")),
	))
	defer span.End()

	client, err := h.clientFromParam(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "unknown integration")
		return err
	}

	items := client.GetItems(ctx)
	options := make([]response.Option, 0, len(items))
	for id, item := range items {
		options = append(options, response.Option{Label: item.Title, Value: id})
	}
	slices.SortFunc(options, func(a, b response.Option) int {
		if byLabel := strings.Compare(a.Label, b.Label); byLabel != 0 {
			return byLabel
		}
		return strings.Compare(a.Value, b.Value)
	})

	span.SetAttributes(attribute.Int("items", len(options)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed items")
	return c.JSON(http.StatusOK, response.NewList(options))
}

func (h *Handler) IntegrationItem(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "IntegrationItem", trace.WithAttributes(
		attribute.String("integration", c.Param("type")),
		attribute.String("item", c.Param("item_id")),
	))
	defer span.End()

	client, err := h.clientFromParam(c)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "unknown integration")
		return err
	}

	item, ok := client.GetItem(ctx, c.Param("item_id"))
	if !ok {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "item not found")
		return response.NotFoundError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "found item")
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) hubspot() (contactProperties, error) {
	client, err := h.registry.Get(integrations.TypeHubspot)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, types.StringError("hubspot is not configured"))
	}

	properties, ok := client.(contactProperties)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, types.StringError("hubspot is not configured"))
	}

	return properties, nil
}

func (h *Handler) HubspotContactProperties(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HubspotContactProperties")
	defer span.End()

	client, err := h.hubspot()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "hubspot not configured")
		return err
	}

	properties := client.GetContactProperties(ctx)
	options := make([]response.Option, 0, len(properties))
	for _, property := range properties {
		options = append(options, response.Option{Label: property, Value: property})
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed contact properties")
	return c.JSON(http.StatusOK, response.NewList(options))
}

type HubspotContactRequest struct {
	Properties map[string]string `json:"properties" validate:"required,min=1"`
	Email      string            `json:"email"      validate:"required,email"`
}

// Creates or updates a hubspot contact. Answers with the vendor envelope.
func (h *Handler) HubspotContact(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HubspotContact")
	defer span.End()

	client, err := h.hubspot()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "hubspot not configured")
		return err
	}

	var rdata HubspotContactRequest
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

	envelope := client.PostContactProperty(ctx, rdata.Email, rdata.Properties)

	span.SetAttributes(attribute.Int("code", envelope.Code))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "posted contact")
	return c.JSON(envelope.Code, h.labels.Localize(envelope))
}
