// Package mailchimp subscribes submissions to Mailchimp audiences.
package mailchimp

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
	"github.com/formbridge/formbridge/internal/hash"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/integrations/mailchimp")

const (
	ItemsCacheKey = "mailchimp-items"

	// Param holding the subscriber address
	EmailParam = "email_address"

	basicAuthUser = "formbridge"
)

// Ensure Client implements integrations.Client interface.
var _ integrations.Client = (*Client)(nil)

type Config struct {
	APIKey string
	// Defaults to the data center encoded in the key suffix
	BaseURL string
}

type Client struct {
	fetcher fetch.Fetcher
	cache   *integrations.ItemsCache
	apiKey  string
	baseURL string
}

// Data center of a key like 0123abcd-us21
func DataCenter(apiKey string) string {
	_, dc, ok := strings.Cut(apiKey, "-")
	if !ok {
		return ""
	}

	return dc
}

func New(cfg Config, fetcher fetch.Fetcher, itemsCache *integrations.ItemsCache) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.mailchimp.com/3.0", DataCenter(cfg.APIKey))
	}

	return &Client{
		fetcher: fetcher,
		cache:   itemsCache,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
	}
}

func (c *Client) Type() string {
	return integrations.TypeMailchimp
}

func (c *Client) CacheKeys() []string {
	return []string{ItemsCacheKey}
}

func (c *Client) do(ctx context.Context, method string, url string, body any) fetch.Details {
	req, err := fetch.NewJSONRequest(method, url, body)
	if err != nil {
		return fetch.Details{URL: url, Err: err}
	}
	req.Username = basicAuthUser
	req.Password = c.apiKey

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

	details := c.do(ctx, http.MethodGet, c.baseURL+"/lists?count=100", nil)
	if !details.OK() {
		err := fmt.Errorf("failed to list audiences: %d: %w", details.Code, details.Err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list audiences")
		return nil, err
	}

	out := map[string]integrations.Item{}
	for _, list := range fetch.AsObjects(details.Search("lists")) {
		id := fetch.AsString(list["id"])
		if id == "" {
			continue
		}

		fieldsDetails := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/lists/%s/merge-fields?count=100", c.baseURL, id), nil)
		if !fieldsDetails.OK() {
			logger.For(c.Type()).WarnContext(ctx, "skipping audience without merge fields", "list", id, "code", fieldsDetails.Code)
			continue
		}

		fields, err := json.Marshal(fieldsDetails.Search("merge_fields"))
		if err != nil {
			fields = nil
		}

		out[id] = integrations.Item{
			ID:     id,
			Title:  fetch.AsString(list["name"]),
			Fields: fields,
		}
	}

	span.SetAttributes(attribute.Int("items", len(out)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed audiences")
	return out, nil
}

// Merge field tags of the given type for an audience
func (c *Client) mergeFieldsOfType(ctx context.Context, listID string, fieldType string) map[string]bool {
	out := map[string]bool{}

	item, ok := c.GetItem(ctx, listID)
	if !ok || len(item.Fields) == 0 {
		return out
	}

	var fields []map[string]any
	if err := json.Unmarshal(item.Fields, &fields); err != nil {
		return out
	}

	for _, f := range fields {
		if fetch.AsString(f["type"]) == fieldType {
			out[fetch.AsString(f["tag"])] = true
		}
	}

	return out
}

type (
	address struct {
		Addr1 string `json:"addr1"`
		City  string `json:"city"`
		State string `json:"state"`
		Zip   string `json:"zip"`
	}

	member struct {
		MergeFields  map[string]any `json:"merge_fields"`
		EmailAddress string         `json:"email_address"`
		StatusIfNew  string         `json:"status_if_new"`
	}

	tag struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
)

func (c *Client) PostApplication(
	ctx context.Context,
	itemID string,
	params types.Params,
	_ types.Files,
	formID string,
) types.Envelope {
	ctx, span := tracer.Start(ctx, "Client.PostApplication", trace.WithAttributes(
		attribute.String("itemID", itemID),
		attribute.String("formID", formID),
	))
	defer span.End()

	email := strings.TrimSpace(params.Value(EmailParam))
	if email == "" {
		span.RecordError(nil)
		span.SetStatus(codes.Error, "missing email")
		return types.NewEnvelope(http.StatusBadRequest, "mailchimpMissingFieldsError", types.EnvelopeData{
			Validation: types.FieldErrors{EmailParam: "validationRequired"},
		})
	}

	addresses := c.mergeFieldsOfType(ctx, itemID, "address")

	body := member{
		EmailAddress: email,
		StatusIfNew:  "subscribed",
		MergeFields:  map[string]any{},
	}
	for _, param := range integrations.RemoveBookkeepingParams(params) {
		if param.Name == EmailParam || param.Name == "" || param.Value == "" {
			continue
		}

		if addresses[param.Name] {
			body.MergeFields[param.Name] = address{Addr1: param.Value}
			continue
		}

		body.MergeFields[param.Name] = strings.ReplaceAll(param.Value, types.Delimiter, ", ")
	}

	memberURL := fmt.Sprintf("%s/lists/%s/members/%s", c.baseURL, itemID, hash.Subscriber(email))

	details := c.do(ctx, http.MethodPut, memberURL, body)
	if !details.OK() {
		span.RecordError(details.Err)
		span.SetStatus(codes.Error, "subscription failed")
		return integrations.Failure(ctx, c.Type(), details, errorLabel(details), fieldErrors(details))
	}

	c.postTags(ctx, memberURL, params.Value(types.ParamMailchimpTags))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "subscribed")
	return integrations.Success(details, integrations.SuccessLabel(c.Type()))
}

// Tags are best effort. A failure is logged and the subscription still succeeds.
func (c *Client) postTags(ctx context.Context, memberURL string, raw string) {
	var tags []tag
	for _, name := range strings.Split(strings.ReplaceAll(raw, types.Delimiter, ","), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tags = append(tags, tag{Name: name, Status: "active"})
	}

	if len(tags) == 0 {
		return
	}

	details := c.do(ctx, http.MethodPost, memberURL+"/tags", map[string]any{"tags": tags})
	if !details.OK() {
		logger.For(c.Type()).WarnContext(ctx, "failed to tag member",
			"code", details.Code,
			"error", details.Err,
		)
	}
}
