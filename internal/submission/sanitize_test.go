package submission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formbridge/formbridge/internal/submission"
	"github.com/formbridge/formbridge/internal/types"
)

func TestSanitizeValue(t *testing.T) {
	cases := []struct {
		name      string
		value     string
		fieldType string
		expected  string
	}{
		{"Plain", "Ada", "text", "Ada"},
		{"Tags", "<b>Ada</b> <i>Lovelace</i>", "text", "Ada Lovelace"},
		{"Script", `Ada<script>alert("x")</script>`, "text", "Ada"},
		{"Whitespace", "  Ada \n\t Lovelace  ", "text", "Ada Lovelace"},
		{"Entities", "Fish &amp; Chips", "text", "Fish & Chips"},
		{"EncodedMarkup", "&lt;script&gt;alert(1)&lt;/script&gt; &lt;b&gt;hi&lt;/b&gt;", "text", "hi"},
		{"DoubleEncodedMarkupStaysText", "&amp;lt;b&amp;gt;hi", "text", "&lt;b&gt;hi"},
		{"Apostrophe", "O'Brien & \"Sons\"", "text", `O'Brien & "Sons"`},
		{"LessThan", "1 < 2", "text", "1 < 2"},
		{"Comment", "Ada<!-- hidden -->", "text", "Ada"},
		{"Style", "<style>p{color:red}</style>Ada", "text", "Ada"},
		{"TextareaKeepsLines", "first  line\r\n  second\tline ", types.FieldTypeTextarea, "first line\nsecond line"},
		{"Delimiter", "a---b---c", types.FieldTypeCheckbox, "a---b---c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, submission.SanitizeValue(tc.value, tc.fieldType))
		})
	}
}

func TestSanitizeValueLeavesNoMarkup(t *testing.T) {
	for _, value := range []string{
		"&lt;img src=x onerror=alert(1)&gt;",
		"&#60;script&#62;alert(1)&#60;/script&#62;",
		"<scr<script>ipt>alert(1)</script>",
		"&lt;a href=&quot;javascript:alert(1)&quot;&gt;click&lt;/a&gt;",
	} {
		out := submission.SanitizeValue(value, "text")
		assert.NotRegexp(t, `<[a-zA-Z/!?]`, out, "input %q", value)
	}
}

func TestSanitize(t *testing.T) {
	params := types.Params{
		{Name: " email ", Value: " ada@example.com ", Type: "email"},
		{Name: "message", Value: "<p>Hi</p>\nthere", Type: types.FieldTypeTextarea},
	}

	out := submission.Sanitize(params)
	assert.Equal(t, types.Params{
		{Name: "email", Value: "ada@example.com", Type: "email"},
		{Name: "message", Value: "Hi\nthere", Type: types.FieldTypeTextarea},
	}, out)
	assert.Equal(t, " ada@example.com ", params[0].Value, "input is not modified")
}
