package submission_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/hash"
	"github.com/formbridge/formbridge/internal/submission"
	"github.com/formbridge/formbridge/internal/submission/mock"
	"github.com/formbridge/formbridge/internal/types"
)

func ptr[T any](v T) *T {
	return &v
}

var hubspotForm = config.Form{
	ID:          "42",
	Integration: "hubspot",
	ItemID:      "guid---123",
	Settings:    map[string]string{submission.RequiredFieldsSetting: "email, firstname"},
}

func validParams() types.Params {
	return types.Params{
		{Name: types.ParamFormPostID, Value: "42"},
		{Name: types.ParamFormType, Value: "hubspot"},
		{Name: "email", Value: "ada@example.com", Type: types.FieldTypeEmail},
		{Name: "firstname", Value: "Ada"},
	}
}

func requireVerificationError(t *testing.T, err error, code int, label string) *submission.VerificationError {
	t.Helper()

	require.ErrorIs(t, err, types.ErrRequestVerification)
	var verr *submission.VerificationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, code, verr.Code)
	assert.Equal(t, label, verr.Label)

	return verr
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	newVerifier := func(t *testing.T, secret string) (*submission.Verifier, *mock.MockForms) {
		ctrl := gomock.NewController(t)
		forms := mock.NewMockForms(ctrl)
		return submission.NewVerifier(forms, secret), forms
	}

	t.Run("Valid", func(t *testing.T) {
		v, forms := newVerifier(t, "")
		forms.EXPECT().Form(gomock.Any(), "42").Return(hubspotForm, nil)

		form, err := v.Verify(ctx, "hubspot", validParams(), "")
		require.NoError(t, err)
		assert.Equal(t, "guid---123", form.ItemID)
	})

	t.Run("MissingFormID", func(t *testing.T) {
		v, _ := newVerifier(t, "")

		_, err := v.Verify(ctx, "hubspot", validParams().Without(types.ParamFormPostID), "")
		requireVerificationError(t, err, http.StatusBadRequest, submission.LabelMalformed)
	})

	t.Run("UnknownForm", func(t *testing.T) {
		v, forms := newVerifier(t, "")
		forms.EXPECT().Form(gomock.Any(), "42").Return(config.Form{}, submission.ErrFormNotFound)

		_, err := v.Verify(ctx, "hubspot", validParams(), "")
		requireVerificationError(t, err, http.StatusBadRequest, submission.LabelMalformed)
	})

	t.Run("LookupFailure", func(t *testing.T) {
		v, forms := newVerifier(t, "")
		expected := errors.New("db down")
		forms.EXPECT().Form(gomock.Any(), "42").Return(config.Form{}, expected)

		_, err := v.Verify(ctx, "hubspot", validParams(), "")
		require.ErrorIs(t, err, expected)
		assert.NotErrorIs(t, err, types.ErrRequestVerification)
	})

	t.Run("InactiveForm", func(t *testing.T) {
		v, forms := newVerifier(t, "")
		inactive := hubspotForm
		inactive.Active = ptr(false)
		forms.EXPECT().Form(gomock.Any(), "42").Return(inactive, nil)

		_, err := v.Verify(ctx, "hubspot", validParams(), "")
		requireVerificationError(t, err, http.StatusBadRequest, submission.LabelMalformed)
	})

	t.Run("WrongIntegration", func(t *testing.T) {
		v, forms := newVerifier(t, "")
		forms.EXPECT().Form(gomock.Any(), "42").Return(hubspotForm, nil)

		params := validParams().Set(types.Param{Name: types.ParamFormType, Value: "mailchimp"})
		_, err := v.Verify(ctx, "mailchimp", params, "")
		requireVerificationError(t, err, http.StatusBadRequest, submission.LabelMalformed)
	})

	t.Run("Honeypot", func(t *testing.T) {
		v, forms := newVerifier(t, "")
		forms.EXPECT().Form(gomock.Any(), "42").Return(hubspotForm, nil)

		params := validParams().Set(types.Param{Name: types.ParamHoneypot, Value: "bot"})
		verr := requireVerificationError(t, func() error {
			_, err := v.Verify(ctx, "hubspot", params, "")
			return err
		}(), http.StatusForbidden, submission.LabelSecurity)

		envelope := verr.Envelope()
		assert.Equal(t, types.StatusError, envelope.Status)
		assert.Equal(t, http.StatusForbidden, envelope.Code)
	})

	t.Run("Signature", func(t *testing.T) {
		v, forms := newVerifier(t, "secret")
		forms.EXPECT().Form(gomock.Any(), "42").Return(hubspotForm, nil).Times(2)

		_, err := v.Verify(ctx, "hubspot", validParams(), hash.Sign("secret", "42"))
		require.NoError(t, err)

		_, err = v.Verify(ctx, "hubspot", validParams(), hash.Sign("other", "42"))
		requireVerificationError(t, err, http.StatusForbidden, submission.LabelSecurity)
	})

	t.Run("FieldErrors", func(t *testing.T) {
		v, forms := newVerifier(t, "")
		forms.EXPECT().Form(gomock.Any(), "42").Return(hubspotForm, nil)

		params := validParams().
			Set(types.Param{Name: "email", Value: "not-an-email"}).
			Set(types.Param{Name: "firstname", Value: ""})
		verr := requireVerificationError(t, func() error {
			_, err := v.Verify(ctx, "hubspot", params, "")
			return err
		}(), http.StatusBadRequest, submission.LabelValidation)

		assert.Equal(t, types.FieldErrors{
			"email":     "validationEmail",
			"firstname": "validationRequired",
		}, verr.Fields)
		assert.Equal(t, verr.Fields, verr.Envelope().Data.Validation)
	})
}
