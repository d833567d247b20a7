// Package greenhouse submits job applications through the Greenhouse job board API.
package greenhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/integrations/greenhouse")

const (
	ItemsCacheKey = "greenhouse-items"

	DefaultBaseURL = "https://boards-api.greenhouse.io/v1/boards"
)

// Ensure Client implements integrations.Client interface.
var _ integrations.Client = (*Client)(nil)

type Config struct {
	APIKey     string
	BoardToken string
	BaseURL    string
}

type Client struct {
	fetcher  fetch.Fetcher
	cache    *integrations.ItemsCache
	apiKey   string
	boardURL string
}

func New(cfg Config, fetcher fetch.Fetcher, itemsCache *integrations.ItemsCache) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		fetcher:  fetcher,
		cache:    itemsCache,
		apiKey:   cfg.APIKey,
		boardURL: baseURL + "/" + cfg.BoardToken,
	}
}

func (c *Client) Type() string {
	return integrations.TypeGreenhouse
}

func (c *Client) CacheKeys() []string {
	return []string{ItemsCacheKey}
}

func (c *Client) do(ctx context.Context, method string, url string, body any) fetch.Details {
	req, err := fetch.NewJSONRequest(method, url, body)
	if err != nil {
		return fetch.Details{URL: url, Err: err}
	}
	req.Username = c.apiKey

	return c.fetcher.Fetch(ctx, req)
}

func (c *Client) GetItems(ctx context.Context) map[string]integrations.Item {
	return integrations.Cached(ctx, c.cache, ItemsCacheKey, c.fetchItems)
}

func (c *Client) GetItem(ctx context.Context, id string) (integrations.Item, bool) {
	return integrations.LookupItem(ctx, c, id)
}

func (c *Client) fetchItems(ctx context.Context) (map[string]integrations.Item, error) {
	ctx, span := tracer.Start(ctx, "Client.fetchItems")
	defer span.End()

	details := c.do(ctx, http.MethodGet, c.boardURL+"/jobs", nil)
	if !details.OK() {
		err := fmt.Errorf("failed to list jobs: %d: %w", details.Code, details.Err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list jobs")
		return nil, err
	}

	out := map[string]integrations.Item{}
	for _, job := range fetch.AsObjects(details.Search("jobs")) {
		id := fetch.AsString(job["id"])
		if id == "" {
			continue
		}

		jobDetails := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/jobs/%s?questions=true", c.boardURL, id), nil)
		if !jobDetails.OK() {
			logger.For(c.Type()).WarnContext(ctx, "skipping job without questions", "job", id, "code", jobDetails.Code)
			continue
		}

		fields, err := json.Marshal(jobDetails.Search("questions"))
		if err != nil {
			fields = nil
		}

		out[id] = integrations.Item{
			ID:     id,
			Title:  fetch.AsString(job["title"]),
			Fields: fields,
		}
	}

	span.SetAttributes(attribute.Int("items", len(out)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed jobs")
	return out, nil
}

func (c *Client) PostApplication(
	ctx context.Context,
	itemID string,
	params types.Params,
	files types.Files,
	formID string,
) types.Envelope {
	ctx, span := tracer.Start(ctx, "Client.PostApplication", trace.WithAttributes(
		attribute.String("itemID", itemID),
		attribute.String("formID", formID),
	))
	defer span.End()

	body := map[string]any{}
	for _, param := range integrations.RemoveBookkeepingParams(params) {
		if param.Name == "" || param.Value == "" {
			continue
		}

		if param.Type == types.FieldTypeCheckbox && strings.Contains(param.Value, types.Delimiter) {
			body[param.Name] = types.SplitValue(param.Value)
			continue
		}

		body[param.Name] = param.Value
	}

	// one attachment per field
	for _, file := range files {
		if len(file.Paths) == 0 {
			continue
		}

		inline, err := integrations.ReadInline(file.Paths[0])
		if err != nil {
			logger.For(c.Type()).WarnContext(ctx, "skipping attachment", "field", file.Name, "error", err)
			continue
		}

		body[file.Name+"_content"] = inline.Content
		body[file.Name+"_content_filename"] = inline.Name

		if extra := len(file.Paths) - 1; extra > 0 {
			span.AddEvent("dropped extra attachments", trace.WithAttributes(
				attribute.String("field", file.Name),
				attribute.Int("dropped", extra),
			))
			logger.For(c.Type()).WarnContext(ctx, "dropping extra attachments", "field", file.Name, "dropped", extra)
		}
	}

	details := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/jobs/%s", c.boardURL, itemID), body)
	if !details.OK() {
		span.RecordError(details.Err)
		span.SetStatus(codes.Error, "application failed")
		return integrations.Failure(ctx, c.Type(), details, errorLabel(details), fieldErrors(details))
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "applied")
	return integrations.Success(details, integrations.SuccessLabel(c.Type()))
}
