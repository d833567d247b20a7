package mailchimp

import (
	"strings"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/types"
)

// Vendor error title -> label key
var errorLabels = map[string]string{
	"Bad Request":                    "mailchimpBadRequestError",
	"Invalid Resource":               "mailchimpInvalidResourceError",
	"Forgotten Email Not Subscribed": "mailchimpForgottenEmailNotSubscribedError",
	"Member In Compliance State":     "mailchimpMemberInComplianceStateError",
	"Member Exists":                  "mailchimpMemberExistsError",
	"Resource Not Found":             "mailchimpResourceNotFoundError",
}

const fakeEmail = "looks fake or invalid"

func errorLabel(details fetch.Details) string {
	if strings.Contains(details.String("detail"), fakeEmail) {
		return "mailchimpInvalidEmailError"
	}

	if label, ok := errorLabels[details.String("title")]; ok {
		return label
	}

	return "submitWpError"
}

func fieldErrors(details fetch.Details) types.FieldErrors {
	out := types.FieldErrors{}

	if strings.Contains(details.String("detail"), fakeEmail) {
		out[EmailParam] = "validationEmail"
	}

	for _, vendorError := range fetch.AsObjects(details.Search("errors")) {
		name := fetch.AsString(vendorError["field"])
		message := strings.ToLower(fetch.AsString(vendorError["message"]))
		if name == "" {
			continue
		}

		switch {
		case name == EmailParam && strings.Contains(message, fakeEmail):
			out[name] = "validationEmail"
		case strings.Contains(message, "required"),
			strings.Contains(message, "blank"),
			strings.Contains(message, "enter a value"):
			out[name] = "validationRequired"
		default:
			out[name] = "validationInvalid"
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
