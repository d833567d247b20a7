package submission

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/formbridge/formbridge/internal/types"
)

var (
	// no tags at all; script and style bodies are dropped with their tags
	textPolicy = bluemonday.StrictPolicy()

	whitespacePattern = regexp.MustCompile(`\s+`)
	// keeps line breaks
	lineSpacePattern = regexp.MustCompile(`[^\S\n]+`)
)

// Plain text version of a submitted value. Textareas keep their line breaks.
//
// Entities are decoded before the markup is stripped, so encoded tags are
// removed like literal ones. The policy escapes the remaining text; decoding
// that once more only restores characters the tokenizer already treated as text.
func SanitizeValue(value string, fieldType string) string {
	value = html.UnescapeString(value)
	value = textPolicy.Sanitize(value)
	value = html.UnescapeString(value)
	value = strings.ReplaceAll(value, "\r\n", "\n")

	if fieldType == types.FieldTypeTextarea {
		lines := strings.Split(value, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(lineSpacePattern.ReplaceAllString(line, " "))
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(value, " "))
}

func Sanitize(params types.Params) types.Params {
	out := make(types.Params, 0, len(params))
	for _, param := range params {
		param.Name = strings.TrimSpace(param.Name)
		param.Value = SanitizeValue(param.Value, param.Type)
		out = append(out, param)
	}

	return out
}
