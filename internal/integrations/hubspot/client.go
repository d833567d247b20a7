// Package hubspot submits forms through the HubSpot forms and file manager APIs.
package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/formbridge/formbridge/internal/enrichment"
	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/pipeline"
	"github.com/formbridge/formbridge/internal/types"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/integrations/hubspot")

const (
	ItemsCacheKey             = "hubspot-items"
	ContactPropertiesCacheKey = "hubspot-contact-properties"

	DefaultFormsURL = "https://api.hsforms.com"
	DefaultAPIURL   = "https://api.hubapi.com"
	DefaultFolder   = "esforms"

	// Form setting overriding the file manager folder
	FolderSetting = "hubspot_filemanager_folder"

	// Pipeline stages
	StagePrePostParams = "prePostParams"
	StageFilesOptions  = "filesOptions"
)

// Ensure Client implements integrations.Client interface.
var _ integrations.Client = (*Client)(nil)

type Config struct {
	APIKey string
	// Submissions API base
	FormsURL string
	// Forms, properties and file manager API base
	APIURL string
	Folder string
}

type Client struct {
	fetcher       fetch.Fetcher
	cache         *integrations.ItemsCache
	enrichment    *enrichment.Mapper
	settings      integrations.FormSettings
	prePostParams *pipeline.Pipeline[types.Params]
	filesOptions  *pipeline.Pipeline[FileOptions]
	apiKey        string
	formsURL      string
	apiURL        string
	folder        string
}

type Option func(*Client)

func WithEnrichment(mapper *enrichment.Mapper) Option {
	return func(c *Client) { c.enrichment = mapper }
}

func WithFormSettings(settings integrations.FormSettings) Option {
	return func(c *Client) { c.settings = settings }
}

// Transforms run on submitted params after bookkeeping params are removed
func WithPrePostParams(p *pipeline.Pipeline[types.Params]) Option {
	return func(c *Client) { c.prePostParams = p }
}

// Transforms run on the file manager options of every uploaded file
func WithFilesOptions(p *pipeline.Pipeline[FileOptions]) Option {
	return func(c *Client) { c.filesOptions = p }
}

func New(cfg Config, fetcher fetch.Fetcher, itemsCache *integrations.ItemsCache, opts ...Option) *Client {
	c := &Client{
		fetcher:  fetcher,
		cache:    itemsCache,
		apiKey:   cfg.APIKey,
		formsURL: strings.TrimSuffix(cfg.FormsURL, "/"),
		apiURL:   strings.TrimSuffix(cfg.APIURL, "/"),
		folder:   cfg.Folder,
	}
	if c.formsURL == "" {
		c.formsURL = DefaultFormsURL
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.folder == "" {
		c.folder = DefaultFolder
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Type() string {
	return integrations.TypeHubspot
}

func (c *Client) CacheKeys() []string {
	return []string{ItemsCacheKey, ContactPropertiesCacheKey}
}

func (c *Client) get(ctx context.Context, url string) fetch.Details {
	req, err := fetch.NewJSONRequest(http.MethodGet, url, nil)
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

	details := c.get(ctx, c.apiURL+"/forms/v2/forms")
	if !details.OK() {
		err := fmt.Errorf("failed to list forms: %d: %w", details.Code, details.Err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list forms")
		return nil, err
	}

	out := map[string]integrations.Item{}
	for _, form := range fetch.AsObjects(details.Decoded()) {
		guid := fetch.AsString(form["guid"])
		if guid == "" {
			continue
		}

		id := guid + types.Delimiter + fetch.AsString(form["portalId"])

		fields, err := json.Marshal(form["formFieldGroups"])
		if err != nil {
			fields = nil
		}

		out[id] = integrations.Item{
			ID:               id,
			Title:            fetch.AsString(form["name"]),
			Fields:           fields,
			SubmitButtonText: fetch.AsString(form["submitText"]),
			Consent:          parseConsent(form["metaData"]),
		}
	}

	span.SetAttributes(attribute.Int("items", len(out)))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed forms")
	return out, nil
}

// Contact properties a form can write: visible, writable text or textarea form fields
func (c *Client) GetContactProperties(ctx context.Context) []string {
	return integrations.Cached(ctx, c.cache, ContactPropertiesCacheKey, c.fetchContactProperties)
}

func (c *Client) fetchContactProperties(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Client.fetchContactProperties")
	defer span.End()

	details := c.get(ctx, c.apiURL+"/properties/v1/contacts/properties")
	if !details.OK() {
		err := fmt.Errorf("failed to list contact properties: %d: %w", details.Code, details.Err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list contact properties")
		return nil, err
	}

	out := []string{}
	for _, property := range fetch.AsObjects(details.Decoded()) {
		name := fetch.AsString(property["name"])
		if name == "" ||
			fetch.AsBool(property["hidden"]) ||
			fetch.AsBool(property["readOnlyValue"]) ||
			!fetch.AsBool(property["formField"]) ||
			fetch.AsBool(property["deleted"]) {
			continue
		}

		switch fetch.AsString(property["fieldType"]) {
		case "text", "textarea":
			out = append(out, name)
		}
	}
	slices.Sort(out)

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "listed contact properties")
	return out, nil
}
