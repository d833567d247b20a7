package greenhouse

import (
	"strings"

	"github.com/formbridge/formbridge/internal/fetch"
	"github.com/formbridge/formbridge/internal/types"
)

const invalidAttributes = "Invalid attributes: "

var errorLabels = map[string]string{
	"Bad Request":              "greenhouseBadRequestError",
	"Unsupported Content-Type": "greenhouseUnsupportedFileTypeError",
	"Job not found":            "greenhouseJobNotFoundError",
}

func errorLabel(details fetch.Details) string {
	message := details.String("error")

	if strings.HasPrefix(message, invalidAttributes) {
		return "greenhouseInvalidAttributesError"
	}

	if label, ok := errorLabels[message]; ok {
		return label
	}

	return "submitWpError"
}

// Invalid attributes: first_name, email -> both required
func fieldErrors(details fetch.Details) types.FieldErrors {
	names, ok := strings.CutPrefix(details.String("error"), invalidAttributes)
	if !ok {
		return nil
	}

	out := types.FieldErrors{}
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = "validationRequired"
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
