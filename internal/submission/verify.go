// Package submission turns raw form posts into verified params.
package submission

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/hash"
	"github.com/formbridge/formbridge/internal/types"
	"github.com/formbridge/formbridge/internal/validator"
)

var tracer = otel.Tracer("github.com/formbridge/formbridge/internal/submission")

const (
	SignatureHeader = "X-Forms-Signature"

	// Comma separated param names that must carry a value
	RequiredFieldsSetting = "required_fields"

	LabelMalformed  = "submitMalformed"
	LabelSecurity   = "submitSecurity"
	LabelValidation = "submitValidation"
)

var ErrFormNotFound = errors.New("form not found")

//go:generate mockgen -destination ./mock/mock.go -package mock . Forms

type Forms interface {
	Form(ctx context.Context, id string) (config.Form, error)
}

// Why a request was turned away. Always wraps types.ErrRequestVerification.
type VerificationError struct {
	Fields types.FieldErrors
	Label  string
	Reason string
	Code   int
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s: %s", types.ErrRequestVerification, e.Reason)
}

func (e *VerificationError) Unwrap() error {
	return types.ErrRequestVerification
}

func (e *VerificationError) Envelope() types.Envelope {
	return types.NewEnvelope(e.Code, e.Label, types.EnvelopeData{Validation: e.Fields})
}

func malformed(reason string) *VerificationError {
	return &VerificationError{Code: http.StatusBadRequest, Label: LabelMalformed, Reason: reason}
}

func security(reason string) *VerificationError {
	return &VerificationError{Code: http.StatusForbidden, Label: LabelSecurity, Reason: reason}
}

type Verifier struct {
	forms     Forms
	validator validator.CustomValidator
	secret    string
}

// secret enables the signature check when not empty
func NewVerifier(forms Forms, secret string) *Verifier {
	return &Verifier{forms: forms, validator: validator.Create(), secret: secret}
}

// Checks a sanitized submission against the form it claims to belong to.
// Returns the form on success and a *VerificationError otherwise.
func (v *Verifier) Verify(
	ctx context.Context,
	integration string,
	params types.Params,
	signature string,
) (config.Form, error) {
	ctx, span := tracer.Start(ctx, "Verifier.Verify", trace.WithAttributes(
		attribute.String("integration", integration),
		attribute.Int("params", len(params)),
	))
	defer span.End()

	form, err := v.verify(ctx, integration, params, signature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification failed")
		return config.Form{}, err
	}

	span.SetAttributes(attribute.String("formID", form.ID))
	span.RecordError(nil)
	span.SetStatus(codes.Ok, "verified submission")
	return form, nil
}

func (v *Verifier) verify(
	ctx context.Context,
	integration string,
	params types.Params,
	signature string,
) (config.Form, error) {
	formID := params.Value(types.ParamFormPostID)
	if formID == "" {
		return config.Form{}, malformed("missing form id")
	}

	form, err := v.forms.Form(ctx, formID)
	if errors.Is(err, ErrFormNotFound) {
		return config.Form{}, malformed("unknown form " + formID)
	} else if err != nil {
		return config.Form{}, fmt.Errorf("failed to load form %s: %w", formID, err)
	}

	if form.Active != nil && !*form.Active {
		return config.Form{}, malformed("inactive form " + formID)
	}

	if form.Integration != integration {
		return config.Form{}, malformed(fmt.Sprintf("form %s submits to %s", formID, form.Integration))
	}

	if formType := params.Value(types.ParamFormType); formType != "" && formType != integration {
		return config.Form{}, malformed("form type does not match route")
	}

	if params.Value(types.ParamHoneypot) != "" {
		return config.Form{}, security("honeypot filled")
	}

	if v.secret != "" && !hash.Verify(v.secret, formID, signature) {
		return config.Form{}, security("bad signature")
	}

	if fields := v.fieldErrors(form, params); len(fields) > 0 {
		return config.Form{}, &VerificationError{
			Code:   http.StatusBadRequest,
			Label:  LabelValidation,
			Reason: "invalid fields",
			Fields: fields,
		}
	}

	return form, nil
}

func (v *Verifier) fieldErrors(form config.Form, params types.Params) types.FieldErrors {
	fields := types.FieldErrors{}

	for _, name := range strings.Split(form.Settings[RequiredFieldsSetting], ",") {
		name = strings.TrimSpace(name)
		if name != "" && params.Value(name) == "" {
			fields[name] = "validationRequired"
		}
	}

	for _, param := range params {
		if param.Type != types.FieldTypeEmail || param.Value == "" {
			continue
		}
		if err := v.validator.Var(param.Value, "email"); err != nil {
			fields[param.Name] = "validationEmail"
		}
	}

	return fields
}
