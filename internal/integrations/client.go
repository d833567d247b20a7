// Package integrations defines the contract every vendor client fulfils and
// the helpers they share.
package integrations

import (
	"context"
	"encoding/json"
	"slices"

	"go.opentelemetry.io/otel"

	"github.com/formbridge/formbridge/internal/types"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/integrations")

const (
	TypeHubspot    = "hubspot"
	TypeMailchimp  = "mailchimp"
	TypeGreenhouse = "greenhouse"
	TypeWorkable   = "workable"
)

var Types = []string{TypeHubspot, TypeMailchimp, TypeGreenhouse, TypeWorkable}

func IsType(t string) bool {
	return slices.Contains(Types, t)
}

type (
	ConsentItem struct {
		ID         string `json:"id"`
		Label      string `json:"label"`
		IsRequired bool   `json:"isRequired"`
	}

	CommunicationConsent struct {
		Items    []ConsentItem `json:"items"`
		Text     string        `json:"text"`
		IsHidden bool          `json:"isHidden"`
	}

	ProcessingConsent struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		Label    string `json:"label"`
		IsHidden bool   `json:"isHidden"`
	}

	LegitimateInterestConsent struct {
		TypeID   string `json:"typeId"`
		Basis    string `json:"basis"`
		Text     string `json:"text"`
		IsActive bool   `json:"isActive"`
		IsHidden bool   `json:"isHidden"`
	}

	// Legal consent configuration of a vendor form
	Consent struct {
		Communication      *CommunicationConsent      `json:"communication,omitempty"`
		Processing         *ProcessingConsent         `json:"processing,omitempty"`
		LegitimateInterest *LegitimateInterestConsent `json:"legitimateInterest,omitempty"`
	}

	// Vendor side form, list or job definition
	Item struct {
		Consent          *Consent        `json:"consent,omitempty"`
		ID               string          `json:"id"`
		Title            string          `json:"title"`
		SubmitButtonText string          `json:"submitButtonText,omitempty"`
		Fields           json.RawMessage `json:"fields,omitempty"`
	}
)

// Adapter between the internal field schema and one vendor API
//
//go:generate mockgen -destination ./mock/mock.go -package mock . Client
type Client interface {
	Type() string
	// Cached vendor items keyed by item id. Empty when the vendor is unavailable.
	GetItems(ctx context.Context) map[string]Item
	GetItem(ctx context.Context, id string) (Item, bool)
	// Sends one submission. Never returns a Go error, failures are error envelopes.
	PostApplication(
		ctx context.Context,
		itemID string,
		params types.Params,
		files types.Files,
		formID string,
	) types.Envelope
	// Cache keys owned by this client
	CacheKeys() []string
}

// GetItem implementation shared by every client. Never calls the vendor on its own.
func LookupItem(ctx context.Context, c Client, id string) (Item, bool) {
	item, ok := c.GetItems(ctx)[id]
	return item, ok
}

// Drops reserved bookkeeping params
func RemoveBookkeepingParams(params types.Params) types.Params {
	return params.Without(types.ReservedParams...)
}

// Label key of the success message of an integration
func SuccessLabel(integration string) string {
	return integration + "Success"
}
