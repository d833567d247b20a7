// Package workable creates candidates through the Workable SPI v3.
package workable

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

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/integrations/workable")

const (
	ItemsCacheKey = "workable-items"

	// File field sent as the candidate resume. Without it the first attachment is used.
	ResumeField = "resume"
)

// Ensure Client implements integrations.Client interface.
var _ integrations.Client = (*Client)(nil)

type Config struct {
	APIKey    string
	Subdomain string
	BaseURL   string
}

type Client struct {
	fetcher fetch.Fetcher
	cache   *integrations.ItemsCache
	apiKey  string
	baseURL string
}

func New(cfg Config, fetcher fetch.Fetcher, itemsCache *integrations.ItemsCache) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.workable.com/spi/v3", cfg.Subdomain)
	}

	return &Client{
		fetcher: fetcher,
		cache:   itemsCache,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
	}
}

func (c *Client) Type() string {
	return integrations.TypeWorkable
}

func (c *Client) CacheKeys() []string {
	return []string{ItemsCacheKey}
}

func (c *Client) do(ctx context.Context, method string, url string, body any) fetch.Details {
	req, err := fetch.NewJSONRequest(method, url, body)
	if err != nil {
		return fetch.Details{URL: url, Err: err}
	}
	req.Bearer = c.apiKey

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

	details := c.do(ctx, http.MethodGet, c.baseURL+"/jobs?state=published", nil)
	if !details.OK() {
		err := fmt.Errorf("failed to list jobs: %d: %w", details.Code, details.Err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list jobs")
		return nil, err
	}

	out := map[string]integrations.Item{}
	for _, job := range fetch.AsObjects(details.Search("jobs")) {
		shortcode := fetch.AsString(job["shortcode"])
		if shortcode == "" {
			continue
		}

		formDetails := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/jobs/%s/application_form", c.baseURL, shortcode), nil)
		if !formDetails.OK() {
			logger.For(c.Type()).WarnContext(ctx, "skipping job without application form", "job", shortcode, "code", formDetails.Code)
			continue
		}

		fields, err := json.Marshal(formDetails.Decoded())
		if err != nil {
			fields = nil
		}

		out[shortcode] = integrations.Item{
			ID:     shortcode,
			Title:  fetch.AsString(job["title"]),
			Fields: fields,
		}
	}

	span.SetAttributes(attribute.Int("items", len(out)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed jobs")
	return out, nil
}

// Candidate attributes Workable accepts at the top level
var candidateFields = map[string]bool{
	"name":         true,
	"firstname":    true,
	"lastname":     true,
	"email":        true,
	"headline":     true,
	"summary":      true,
	"address":      true,
	"phone":        true,
	"cover_letter": true,
}

type (
	resume struct {
		Name string `json:"name"`
		Data string `json:"data"`
	}

	answer struct {
		QuestionKey string `json:"question_key"`
		Body        string `json:"body"`
	}
)

func (c *Client) resumeFrom(ctx context.Context, files types.Files) *resume {
	var path string
	for _, file := range files {
		if len(file.Paths) == 0 {
			continue
		}
		if path == "" || file.Name == ResumeField {
			path = file.Paths[0]
		}
		if file.Name == ResumeField {
			break
		}
	}
	if path == "" {
		return nil
	}

	inline, err := integrations.ReadInline(path)
	if err != nil {
		logger.For(c.Type()).WarnContext(ctx, "skipping resume", "error", err)
		return nil
	}

	return &resume{Name: inline.Name, Data: inline.Content}
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

	candidate := map[string]any{}
	var answers []answer

	for _, param := range integrations.RemoveBookkeepingParams(params) {
		if param.Name == "" || param.Value == "" {
			continue
		}

		value := strings.ReplaceAll(param.Value, types.Delimiter, ", ")
		if candidateFields[param.Name] {
			candidate[param.Name] = value
			continue
		}

		answers = append(answers, answer{QuestionKey: param.Name, Body: value})
	}

	if _, ok := candidate["name"]; !ok {
		name := strings.TrimSpace(params.Value("firstname") + " " + params.Value("lastname"))
		if name != "" {
			candidate["name"] = name
		}
	}

	if len(answers) > 0 {
		candidate["answers"] = answers
	}

	if r := c.resumeFrom(ctx, files); r != nil {
		candidate["resume"] = r
	}

	body := map[string]any{
		"sourced":   false,
		"candidate": candidate,
	}

	details := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/jobs/%s/candidates", c.baseURL, itemID), body)
	if !details.OK() {
		span.RecordError(details.Err)
		span.SetStatus(codes.Error, "application failed")
		return integrations.Failure(ctx, c.Type(), details, errorLabel(details), fieldErrors(details))
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "applied")
	return integrations.Success(details, integrations.SuccessLabel(c.Type()))
}
