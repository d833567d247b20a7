package submission

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/formbridge/formbridge/internal/types"
)

const fieldSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string", "maxLength": 255},
    "value": {"type": "string", "maxLength": 65535},
    "type": {"type": "string", "maxLength": 64},
    "typeCustom": {"type": "string", "maxLength": 255},
    "custom": {"type": "string", "maxLength": 255}
  }
}`

const paramSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$ref": "field.json",
  "required": ["name"],
  "properties": {
    "name": {"minLength": 1}
  }
}`

// Either field name -> field, or a list of named params
const paramsSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "oneOf": [
    {
      "type": "object",
      "maxProperties": 500,
      "propertyNames": {"minLength": 1, "maxLength": 255},
      "additionalProperties": {"$ref": "field.json"}
    },
    {
      "type": "array",
      "maxItems": 500,
      "items": {"$ref": "param.json"}
    }
  ]
}`

var (
	ParamSchema  *jsonschema.Schema
	ParamsSchema *jsonschema.Schema
)

func init() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	for name, schema := range map[string]string{
		"field.json":  fieldSchema,
		"param.json":  paramSchema,
		"params.json": paramsSchema,
	} {
		if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
			panic(err)
		}
	}

	ParamSchema = compiler.MustCompile("param.json")
	ParamsSchema = compiler.MustCompile("params.json")
}

// Schema violations keyed by instance location
func SchemaFields(err error) map[string]string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return nil
	}

	errs := validationErr.BasicOutput().Errors
	fieldMap := make(map[string]string, len(errs))
	for _, e := range errs {
		if e.InstanceLocation == "" && e.KeywordLocation == "" {
			continue
		}
		fieldMap[e.InstanceLocation] = e.Error
	}

	return fieldMap
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("%w: invalid json: %w", types.ErrRequestVerification, err)
	}
	if decoder.More() {
		return fmt.Errorf("%w: invalid json: trailing data", types.ErrRequestVerification)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", types.ErrRequestVerification, err)
	}

	return nil
}

// JSON request body: field name -> param, ordered by field name. A list of
// named params is accepted as well and keeps its order.
func DecodeParams(raw []byte) (types.Params, error) {
	if err := validate(ParamsSchema, raw); err != nil {
		return nil, err
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var params types.Params
		if err := json.Unmarshal(trimmed, &params); err != nil {
			return nil, fmt.Errorf("%w: %w", types.ErrRequestVerification, err)
		}
		return params, nil
	}

	var fields map[string]types.Param
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrRequestVerification, err)
	}

	params := make(types.Params, 0, len(fields))
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		param := fields[name]
		param.Name = name
		params = append(params, param)
	}

	return params, nil
}

// Multipart field: a JSON encoded param, or a bare value named after the field
func DecodeField(name string, raw string) (types.Param, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		if err := validate(ParamSchema, []byte(trimmed)); err != nil {
			return types.Param{}, err
		}

		param, err := types.DecodeParam(name, []byte(trimmed))
		if err != nil {
			return types.Param{}, fmt.Errorf("%w: %w", types.ErrRequestVerification, err)
		}

		return param, nil
	}

	return types.Param{Name: name, Value: raw}, nil
}
