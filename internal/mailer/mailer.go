// Package mailer notifies site owners about submissions a vendor refused.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"go.opentelemetry.io/otel"

	"github.com/formbridge/formbridge/internal/archive"
	"github.com/formbridge/formbridge/internal/types"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/mailer")

// Everything needed to hand a failed submission over to a human
type Fallback struct {
	Envelope    types.Envelope
	FormID      string
	Integration string
	Params      types.Params
	Attachments []archive.ArchivedFile
}

//go:generate mockgen -destination ./mock/mock.go -package mock . Mailer

type Mailer interface {
	FallbackEmail(ctx context.Context, fallback Fallback) error
}

var bodyTemplate = template.Must(template.New("fallback").Parse(
	`A form submission could not be delivered to {{ .Integration }}.

Form: {{ .FormID }}
Code: {{ .Envelope.Code }}
Message: {{ .Envelope.Message }}
{{- if .Envelope.Data.Validation }}

Validation:
{{- range $field, $label := .Envelope.Data.Validation }}
  {{ $field }}: {{ $label }}
{{- end }}
{{- end }}

Submitted fields:
{{- range .Params }}
  {{ .Name }}: {{ .Value }}
{{- end }}
{{- if .Attachments }}

Attachments:
{{- range .Attachments }}
  {{ .Field }}: {{ .Name }}{{ if .URL }} {{ .URL }}{{ end }}
{{- end }}
{{- end }}

Vendor response:
{{ .Response }}
`))

func Subject(f Fallback) string {
	return fmt.Sprintf("[formbridge] %s submission failed for form %s", f.Integration, f.FormID)
}

func Body(f Fallback) (string, error) {
	response := "{}"
	if f.Envelope.Data.Body != nil {
		raw, err := json.MarshalIndent(f.Envelope.Data.Body, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode vendor response: %w", err)
		}
		response = string(raw)
	}

	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Fallback
		Response string
	}{f, response})
	if err != nil {
		return "", fmt.Errorf("failed to render fallback email: %w", err)
	}

	return buf.String(), nil
}
