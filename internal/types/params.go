package types

import (
	"encoding/json"
	"slices"
	"strings"
)

// Separates multiple values of a single field (checkbox groups, consent ids)
const Delimiter = "---"

// Bookkeeping params sent by the form renderer. They never reach a vendor.
const (
	ParamFormPostID      = "es-form-post-id"
	ParamFormType        = "es-form-type"
	ParamSingleSubmit    = "es-form-single-submit"
	ParamStorage         = "es-form-storage"
	ParamAction          = "es-form-action"
	ParamHoneypot        = "es-form-honeypot"
	ParamHubspotCookie   = "es-form-hubspot-cookie"
	ParamHubspotPageName = "es-form-hubspot-page-name"
	ParamHubspotPageURL  = "es-form-hubspot-page-url"
	ParamMailchimpTags   = "es-form-mailchimp-tags"
)

var ReservedParams = []string{
	ParamFormPostID,
	ParamFormType,
	ParamSingleSubmit,
	ParamStorage,
	ParamAction,
	ParamHoneypot,
	ParamHubspotCookie,
	ParamHubspotPageName,
	ParamHubspotPageURL,
	ParamMailchimpTags,
}

func IsReservedParam(name string) bool {
	return slices.Contains(ReservedParams, name)
}

// Field types with special serialization rules
const (
	FieldTypeCheckbox = "checkbox"
	FieldTypeDate     = "date"
	FieldTypeEmail    = "email"
	FieldTypeFile     = "file"
	FieldTypeHidden   = "hidden"
	FieldTypeTextarea = "textarea"
)

type (
	// One submitted form field
	Param struct {
		Name       string `json:"name"                 validate:"required"`
		Value      string `json:"value"`
		Type       string `json:"type"`
		TypeCustom string `json:"typeCustom,omitempty"`
		Custom     string `json:"custom,omitempty"`
	}

	Params []Param

	// Uploaded files for a single field. Paths point at request scoped temp files.
	FileField struct {
		Name   string   `json:"name"`
		Paths  []string `json:"value"`
		Custom string   `json:"custom,omitempty"`
	}

	Files []FileField
)

func (p Params) Get(name string) (Param, bool) {
	for _, param := range p {
		if param.Name == name {
			return param, true
		}
	}

	return Param{}, false
}

// Value of the named param or "" when it was not submitted
func (p Params) Value(name string) string {
	param, _ := p.Get(name)
	return param.Value
}

// Replaces the value of an existing param or appends a new one
func (p Params) Set(param Param) Params {
	out := slices.Clone(p)
	for i := range out {
		if out[i].Name == param.Name {
			out[i].Value = param.Value
			return out
		}
	}

	return append(out, param)
}

func (p Params) Without(names ...string) Params {
	out := make(Params, 0, len(p))
	for _, param := range p {
		if slices.Contains(names, param.Name) {
			continue
		}
		out = append(out, param)
	}

	return out
}

// Flattens params into name -> value, dropping empty names and values
func (p Params) Values() map[string]string {
	out := make(map[string]string, len(p))
	for _, param := range p {
		if param.Name == "" || param.Value == "" {
			continue
		}
		out[param.Name] = param.Value
	}

	return out
}

// Splits a delimited multi-value
func SplitValue(value string) []string {
	if value == "" {
		return nil
	}

	return strings.Split(value, Delimiter)
}

func (f Files) Paths() []string {
	var paths []string
	for _, field := range f {
		paths = append(paths, field.Paths...)
	}

	return paths
}

// Decodes a single param from its JSON wire form. A bare string is accepted as the value.
func DecodeParam(name string, raw []byte) (Param, error) {
	param := Param{}
	if err := json.Unmarshal(raw, &param); err != nil {
		var value string
		if strErr := json.Unmarshal(raw, &value); strErr != nil {
			return Param{}, err
		}
		param.Value = value
	}

	if param.Name == "" {
		param.Name = name
	}

	return param, nil
}
