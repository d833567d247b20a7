package workable

import (
	"strings"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/types"
)

const validationFailed = "Validation failed: "

var errorLabels = map[string]string{
	"Bad Request": "workableBadRequestError",
	"Not found":   "workableJobNotFoundError",
	"Not Found":   "workableJobNotFoundError",
}

func errorLabel(details fetch.Details) string {
	message := details.String("error")

	switch {
	case strings.HasPrefix(message, validationFailed):
		return "workableValidationError"
	case strings.Contains(strings.ToLower(message), "archived"):
		return "workableArchivedJobError"
	}

	if label, ok := errorLabels[message]; ok {
		return label
	}

	return "submitWpError"
}

// Validation failed: Email is invalid, Firstname can't be blank
func fieldErrors(details fetch.Details) types.FieldErrors {
	problems, ok := strings.CutPrefix(details.String("error"), validationFailed)
	if !ok {
		return nil
	}

	out := types.FieldErrors{}
	for _, problem := range strings.Split(problems, ",") {
		problem = strings.TrimSpace(problem)

		if field, ok := strings.CutSuffix(problem, " is invalid"); ok {
			name := fieldName(field)
			if name == "email" {
				out[name] = "validationEmail"
			} else {
				out[name] = "validationInvalid"
			}
			continue
		}

		if field, ok := strings.CutSuffix(problem, " can't be blank"); ok {
			out[fieldName(field)] = "validationRequired"
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// Workable reports attributes humanized: "Cover letter" -> cover_letter
func fieldName(humanized string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(humanized)), " ", "_")
}
