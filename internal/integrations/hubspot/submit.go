package hubspot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/types"
)

// File manager upload options, sent as the folderPath and options multipart fields
type FileOptions struct {
	FolderPath string `json:"-"`
	Access     string `json:"access"`
	Overwrite  bool   `json:"overwrite"`
}

type (
	submitContext struct {
		IPAddress string `json:"ipAddress"`
		Hutk      string `json:"hutk"`
		PageURI   string `json:"pageUri"`
		PageName  string `json:"pageName"`
	}

	field struct {
		Value        any    `json:"value"`
		Name         string `json:"name"`
		ObjectTypeID string `json:"objectTypeId"`
	}

	submission struct {
		LegalConsentOptions *legalConsentOptions `json:"legalConsentOptions,omitempty"`
		Context             submitContext        `json:"context"`
		Fields              []field              `json:"fields"`
	}
)

// Layouts accepted for date fields, tried in order
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006.",
	"02.01.2006",
	"01/02/2006",
}

// Date field value as unix millis. Values without a zone are read as UTC.
func DateToMillis(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return t.UTC().UnixMilli(), true
		}
	}

	return 0, false
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

	ids := strings.Split(itemID, types.Delimiter)
	if len(ids) != 2 || ids[0] == "" || ids[1] == "" {
		span.RecordError(fmt.Errorf("malformed item id %q", itemID))
		span.SetStatus(codes.Error, "malformed item id")
		return types.NewEnvelope(http.StatusBadRequest, "hubspotInvalidRequestError", types.EnvelopeData{})
	}
	guid, portalID := ids[0], ids[1]

	body := submission{
		Context: submitContext{
			IPAddress: integrations.RequestMetaFrom(ctx).RemoteIP,
			Hutk:      params.Value(types.ParamHubspotCookie),
			PageURI:   params.Value(types.ParamHubspotPageURL),
			PageName:  params.Value(types.ParamHubspotPageName),
		},
		LegalConsentOptions: c.prepareConsent(ctx, params, itemID),
	}

	body.Fields = append(c.prepareParams(ctx, params), c.prepareFiles(ctx, files, formID)...)
	span.SetAttributes(attribute.Int("fields", len(body.Fields)))

	endpoint := fmt.Sprintf("%s/submissions/v3/integration/secure/submit/%s/%s", c.formsURL, portalID, guid)

	req, err := fetch.NewJSONRequest(http.MethodPost, endpoint, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build submission")
		return integrations.Failure(ctx, c.Type(), fetch.Details{URL: endpoint, Err: err}, fallbackErrorLabel, nil)
	}
	req.Bearer = c.apiKey

	details := c.fetcher.Fetch(ctx, req)
	if details.OK() {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "submitted")
		return integrations.Success(details, integrations.SuccessLabel(c.Type()))
	}

	span.RecordError(details.Err)
	span.SetStatus(codes.Error, "submission failed")
	return integrations.Failure(ctx, c.Type(), details, errorLabel(details), fieldErrors(details))
}

// Plain fields of the submission. Consent params never end up here.
func (c *Client) prepareParams(ctx context.Context, params types.Params) []field {
	params = c.enrichment.Map(ctx, params)
	params = integrations.RemoveBookkeepingParams(params)
	params = c.prePostParams.Apply(ctx, params)

	out := []field{}
	for _, param := range params {
		if isConsentMarker(param.TypeCustom) {
			continue
		}

		if param.Value == "" || param.Name == "" {
			continue
		}

		var value any = param.Value

		switch param.Type {
		case types.FieldTypeCheckbox:
			v := param.Value
			if v == "on" {
				v = "true"
			}
			value = strings.ReplaceAll(v, types.Delimiter, ";")
		case types.FieldTypeDate:
			if millis, ok := DateToMillis(param.Value); ok {
				value = millis
			}
		}

		out = append(out, field{
			Name:         param.Name,
			Value:        value,
			ObjectTypeID: param.Custom,
		})
	}

	return out
}

// Uploads every attachment and returns one field per stored file url.
// Files that fail to upload are left out.
func (c *Client) prepareFiles(ctx context.Context, files types.Files, formID string) []field {
	out := []field{}
	for _, file := range files {
		for _, path := range file.Paths {
			fileURL, err := c.postFileMedia(ctx, path, formID)
			if err != nil {
				logger.For(c.Type()).WarnContext(ctx, "skipping attachment", "field", file.Name, "error", err)
				continue
			}

			out = append(out, field{
				Name:         file.Name,
				Value:        fileURL,
				ObjectTypeID: file.Custom,
			})
		}
	}

	return out
}

func (c *Client) folderFor(ctx context.Context, formID string) string {
	if c.settings != nil {
		if folder := c.settings.FormSetting(ctx, formID, FolderSetting); folder != "" {
			return folder
		}
	}

	return c.folder
}

func (c *Client) postFileMedia(ctx context.Context, path string, formID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Client.postFileMedia")
	defer span.End()

	options := c.filesOptions.Apply(ctx, FileOptions{
		FolderPath: "/" + c.folderFor(ctx, formID),
		Access:     "PUBLIC_NOT_INDEXABLE",
		Overwrite:  false,
	})

	encoded, err := json.Marshal(options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode file options")
		return "", fmt.Errorf("%w: %w", types.ErrLocalFile, err)
	}

	req, err := fetch.NewFileRequest(c.apiURL+"/filemanager/api/v3/files/upload", "file", path, map[string]string{
		"folderPath": options.FolderPath,
		"options":    string(encoded),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read attachment")
		return "", err
	}
	req.Bearer = c.apiKey

	details := c.fetcher.Fetch(ctx, req)
	if details.Code != http.StatusOK {
		err = fmt.Errorf("%w: file manager answered %d", types.ErrLocalFile, details.Code)
		if details.Err != nil {
			err = errors.Join(err, details.Err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return "", err
	}

	fileURL := details.String("objects[0].url")
	if fileURL == "" {
		err = fmt.Errorf("%w: file manager returned no url", types.ErrLocalFile)
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload returned no url")
		return "", err
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "uploaded file")
	return fileURL, nil
}

type contactProperty struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Creates or updates the contact with email, setting every non reserved property
func (c *Client) PostContactProperty(ctx context.Context, email string, properties map[string]string) types.Envelope {
	ctx, span := tracer.Start(ctx, "Client.PostContactProperty")
	defer span.End()

	names := make([]string, 0, len(properties))
	for name := range properties {
		if types.IsReservedParam(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	body := struct {
		Properties []contactProperty `json:"properties"`
	}{Properties: make([]contactProperty, 0, len(names))}
	for _, name := range names {
		body.Properties = append(body.Properties, contactProperty{Property: name, Value: properties[name]})
	}

	endpoint := c.apiURL + "/contacts/v1/contact/createOrUpdate/email/" + url.PathEscape(email)

	req, err := fetch.NewJSONRequest(http.MethodPost, endpoint, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build request")
		return integrations.Failure(ctx, c.Type(), fetch.Details{URL: endpoint, Err: err}, fallbackErrorLabel, nil)
	}
	req.Bearer = c.apiKey

	details := c.fetcher.Fetch(ctx, req)
	if details.OK() {
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "updated contact")
		return integrations.Success(details, integrations.SuccessLabel(c.Type()))
	}

	span.RecordError(details.Err)
	span.SetStatus(codes.Error, "contact update failed")
	return integrations.Failure(ctx, c.Type(), details, errorLabel(details), nil)
}
