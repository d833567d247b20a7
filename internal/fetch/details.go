package fetch

import (
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// Everything a client needs to know about a finished vendor call
type Details struct {
	Err  error
	URL  string
	Body []byte
	Code int
}

// 2xx without a transport error
func (d Details) OK() bool {
	return d.Err == nil && d.Code >= 200 && d.Code <= 299
}

// Body decoded as JSON. nil when the body is empty or not JSON.
func (d Details) Decoded() any {
	if len(d.Body) == 0 {
		return nil
	}

	var out any
	if err := json.Unmarshal(d.Body, &out); err != nil {
		return nil
	}

	return out
}

// Runs a JMESPath expression against the decoded body. Missing keys and bad
// expressions both yield nil so vendor payload drift never panics a client.
func (d Details) Search(expression string) any {
	data := d.Decoded()
	if data == nil {
		return nil
	}

	return Search(expression, data)
}

func (d Details) String(expression string) string {
	return AsString(d.Search(expression))
}

// Search over already decoded data
func Search(expression string, data any) any {
	result, err := jmespath.Search(expression, data)
	if err != nil {
		return nil
	}

	return result
}

// Lenient scalar to string conversion for decoded JSON values
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Decoded JSON array as a slice of objects, skipping anything that is not an object
func AsObjects(v any) []map[string]any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}

	return out
}
