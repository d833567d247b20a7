package hubspot

import (
	"context"
	"encoding/json"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/integrations"
	"github.com/formbridge/formbridge/internal/types"
)

// typeCustom markers of consent params
const (
	ConsentCommunication = "communication"
	ConsentProcessing    = "processing"
	ConsentLegitimate    = "legitimateInterest"
)

const processingImplicit = "IMPLICIT"

func isConsentMarker(typeCustom string) bool {
	return typeCustom == ConsentCommunication ||
		typeCustom == ConsentProcessing ||
		typeCustom == ConsentLegitimate
}

// legalConsentOptions as stored in form metaData
type consentOptions struct {
	CommunicationConsentCheckboxes []struct {
		CommunicationTypeID any    `json:"communicationTypeId"`
		Label               string `json:"label"`
		Required            bool   `json:"required"`
	} `json:"communicationConsentCheckboxes"`
	LegitimateInterestSubscriptionTypes []any  `json:"legitimateInterestSubscriptionTypes"`
	CommunicationConsentText            string `json:"communicationConsentText"`
	ProcessingConsentType               string `json:"processingConsentType"`
	ProcessingConsentText               string `json:"processingConsentText"`
	ProcessingConsentCheckboxLabel      string `json:"processingConsentCheckboxLabel"`
	PrivacyPolicyText                   string `json:"privacyPolicyText"`
	IsLegitimateInterest                bool   `json:"isLegitimateInterest"`
}

func parseConsent(metaData any) *integrations.Consent {
	var raw string
	for _, meta := range fetch.AsObjects(metaData) {
		if fetch.AsString(meta["name"]) == "legalConsentOptions" {
			raw = fetch.AsString(meta["value"])
			break
		}
	}
	if raw == "" {
		return nil
	}

	var options consentOptions
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil
	}

	implicit := options.ProcessingConsentType == processingImplicit

	communication := &integrations.CommunicationConsent{
		Items:    make([]integrations.ConsentItem, 0, len(options.CommunicationConsentCheckboxes)),
		Text:     options.CommunicationConsentText,
		IsHidden: implicit && options.IsLegitimateInterest,
	}
	for _, checkbox := range options.CommunicationConsentCheckboxes {
		communication.Items = append(communication.Items, integrations.ConsentItem{
			ID:         fetch.AsString(checkbox.CommunicationTypeID),
			Label:      checkbox.Label,
			IsRequired: checkbox.Required,
		})
	}

	legitimate := &integrations.LegitimateInterestConsent{
		Basis:    "CUSTOMER",
		Text:     options.PrivacyPolicyText,
		IsActive: options.IsLegitimateInterest,
		IsHidden: true,
	}
	if len(options.LegitimateInterestSubscriptionTypes) > 0 {
		legitimate.TypeID = fetch.AsString(options.LegitimateInterestSubscriptionTypes[0])
	}

	return &integrations.Consent{
		Communication: communication,
		Processing: &integrations.ProcessingConsent{
			Type:     options.ProcessingConsentType,
			Text:     options.ProcessingConsentText,
			Label:    options.ProcessingConsentCheckboxLabel,
			IsHidden: implicit,
		},
		LegitimateInterest: legitimate,
	}
}

type (
	legitimateInterest struct {
		SubscriptionTypeID string `json:"subscriptionTypeId"`
		LegalBasis         string `json:"legalBasis"`
		Text               string `json:"text"`
		Value              bool   `json:"value"`
	}

	communication struct {
		SubscriptionTypeID string `json:"subscriptionTypeId"`
		Text               string `json:"text"`
		Value              bool   `json:"value"`
	}

	consent struct {
		ConsentToProcess *bool           `json:"consentToProcess,omitempty"`
		Text             string          `json:"text,omitempty"`
		Communications   []communication `json:"communications,omitempty"`
	}

	legalConsentOptions struct {
		LegitimateInterest *legitimateInterest `json:"legitimateInterest,omitempty"`
		Consent            *consent            `json:"consent,omitempty"`
	}
)

func truthy(value string) bool {
	return value != "" && value != "0"
}

// Folds consent params into the legalConsentOptions block. Nil when the form has no consent.
func (c *Client) prepareConsent(ctx context.Context, params types.Params, itemID string) *legalConsentOptions {
	item, ok := c.GetItem(ctx, itemID)
	if !ok || item.Consent == nil {
		return nil
	}
	data := item.Consent

	out := &legalConsentOptions{}
	var communications []communication

	for _, param := range params {
		if data.LegitimateInterest != nil && data.LegitimateInterest.IsActive {
			out.LegitimateInterest = &legitimateInterest{
				Value:              true,
				SubscriptionTypeID: data.LegitimateInterest.TypeID,
				LegalBasis:         data.LegitimateInterest.Basis,
				Text:               data.LegitimateInterest.Text,
			}
			continue
		}

		switch param.TypeCustom {
		case ConsentProcessing:
			if out.Consent == nil {
				out.Consent = &consent{}
			}
			agreed := truthy(param.Value)
			out.Consent.ConsentToProcess = &agreed
			out.Consent.Text = param.Value
		case ConsentCommunication:
			segments := types.SplitValue(param.Name)
			subscriptionTypeID := ""
			if len(segments) > 0 {
				subscriptionTypeID = segments[len(segments)-1]
			}

			text := ""
			if data.Communication != nil {
				for _, consentItem := range data.Communication.Items {
					if consentItem.ID == subscriptionTypeID {
						text = consentItem.Label
						break
					}
				}
			}

			communications = append(communications, communication{
				Value:              truthy(param.Value),
				SubscriptionTypeID: subscriptionTypeID,
				Text:               text,
			})
		}
	}

	if len(communications) > 0 {
		if out.Consent == nil {
			out.Consent = &consent{}
		}
		out.Consent.Communications = communications
	}

	if out.LegitimateInterest == nil && out.Consent == nil {
		return nil
	}

	return out
}
