package hubspot

import (
	"net/http"
	"regexp"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/types"
)

// Vendor message or errorType -> label key
var errorLabels = map[string]string{
	"Bad Request":              "hubspotBadRequestError",
	"The request is not valid": "hubspotInvalidRequestError",

	"MAX_NUMBER_OF_SUBMITTED_VALUES_EXCEEDED": "hubspotMaxNumberOfSubmittedValuesExceededError",
	"INVALID_EMAIL":                      "hubspotInvalidEmailError",
	"BLOCKED_EMAIL":                      "hubspotBlockedEmailError",
	"INVALID_NUMBER":                     "hubspotInvalidNumberError",
	"INPUT_TOO_LARGE":                    "hubspotInputTooLargeError",
	"FIELD_NOT_IN_FORM_DEFINITION":       "hubspotFieldNotInFormDefinitionError",
	"NUMBER_OUT_OF_RANGE":                "hubspotNumberOutOfRangeError",
	"VALUE_NOT_IN_FIELD_DEFINITION":      "hubspotValueNotInFieldDefinitionError",
	"INVALID_METADATA":                   "hubspotInvalidMetadataError",
	"INVALID_GOTOWEBINAR_WEBINAR_KEY":    "hubspotInvalidGotowebinarWebinarKeyError",
	"INVALID_HUTK":                       "hubspotInvalidHutkError",
	"INVALID_IP_ADDRESS":                 "hubspotInvalidIpAddressError",
	"INVALID_PAGE_URI":                   "hubspotInvalidPageUriError",
	"INVALID_LEGAL_OPTION_FORMAT":        "hubspotInvalidLegalOptionFormatError",
	"MISSING_PROCESSING_CONSENT":         "hubspotMissingProcessingConsentError",
	"MISSING_PROCESSING_CONSENT_TEXT":    "hubspotMissingProcessingConsentTextError",
	"MISSING_COMMUNICATION_CONSENT_TEXT": "hubspotMissingCommunicationConsentTextError",
	"MISSING_LEGITIMATE_INTEREST_TEXT":   "hubspotMissingLegitimateInterestTextError",
	"DUPLICATE_SUBSCRIPTION_TYPE_ID":     "hubspotDuplicateSubscriptionTypeIdError",
	"FORM_HAS_RECAPTCHA_ENABLED":         "hubspotHasRecaptchaEnabledError",
	"ERROR 429":                          "hubspotError429Error",
}

const fallbackErrorLabel = "submitWpError"

// Matches HubSpot prose like: Required field 'email' is missing
var requiredField = regexp.MustCompile(`(Required field) '(\w+)' (is missing)`)

// Label for a vendor error. The first errors[].errorType wins over message.
func ErrorLabel(message string) string {
	if label, ok := errorLabels[message]; ok {
		return label
	}

	return fallbackErrorLabel
}

func errorLabel(details fetch.Details) string {
	message := details.String("message")
	if errorType := details.String("errors[0].errorType"); errorType != "" {
		message = errorType
	}

	label := ErrorLabel(message)
	if label == fallbackErrorLabel && details.Code == http.StatusTooManyRequests {
		return errorLabels["ERROR 429"]
	}

	return label
}

func fieldErrors(details fetch.Details) types.FieldErrors {
	out := types.FieldErrors{}

	for _, vendorError := range fetch.AsObjects(details.Search("errors")) {
		errorType := fetch.AsString(vendorError["errorType"])
		message := fetch.AsString(vendorError["message"])
		if errorType == "" || message == "" {
			continue
		}

		if errorType != "REQUIRED_FIELD" {
			continue
		}

		match := requiredField.FindStringSubmatch(message)
		if len(match) > 2 && match[2] != "" {
			out[match[2]] = "validationRequired"
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
