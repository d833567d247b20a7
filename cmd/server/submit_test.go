package main

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/formbridge/formbridge/cmd/server/internal/models"
	"github.com/formbridge/formbridge/internal/mailer"
	"github.com/formbridge/formbridge/internal/types"
)

func submitParams(formID string, extra ...types.Param) types.Params {
	params := types.Params{
		{Name: types.ParamFormPostID, Value: formID, Type: types.FieldTypeHidden},
		{Name: "email", Value: "ada@example.com", Type: types.FieldTypeEmail},
		{Name: "message", Value: "<b>Hello</b>   there", Type: types.FieldTypeTextarea},
	}

	return append(params, extra...)
}

func hubspotSuccess() types.Envelope {
	return types.NewEnvelope(http.StatusOK, "hubspotSuccess", types.EnvelopeData{})
}

func (s *ServerTestSuite) assertTempDirEmpty() {
	entries, err := os.ReadDir(s.tempDir)
	s.Require().NoError(err)
	s.Empty(entries, "request scoped temp files were left behind")
}

func (s *ServerTestSuite) Test_SubmitSuccess() {
	s.hubspot.EXPECT().
		PostApplication(gomock.Any(), "guid---1", gomock.Any(), gomock.Any(), formHubspot).
		DoAndReturn(func(
			_ context.Context, _ string, params types.Params, files types.Files, _ string,
		) types.Envelope {
			assert.Equal(s.T(), "ada@example.com", params.Value("email"))
			assert.Equal(s.T(), "Hello there", params.Value("message"), "value should be sanitized")
			assert.Empty(s.T(), files)
			return hubspotSuccess()
		})

	r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/hubspot-submit/", submitParams(formHubspot), nil))

	assertEnvelope(s.T(), r, http.StatusOK, types.StatusSuccess,
		"The form was submitted successfully. Thank you!")
	s.assertTempDirEmpty()
}

func (s *ServerTestSuite) Test_SubmitFieldMappingBody() {
	s.hubspot.EXPECT().
		PostApplication(gomock.Any(), "guid---1", gomock.Any(), gomock.Any(), formHubspot).
		DoAndReturn(func(
			_ context.Context, _ string, params types.Params, _ types.Files, _ string,
		) types.Envelope {
			assert.Equal(s.T(), "ada@example.com", params.Value("email"))
			assert.Equal(s.T(), "Ada", params.Value("firstname"))
			email, _ := params.Get("email")
			assert.Equal(s.T(), types.FieldTypeEmail, email.Type)
			return hubspotSuccess()
		})

	body := `{
		"es-form-post-id": {"value": "` + formHubspot + `", "type": "hidden"},
		"email": {"value": "ada@example.com", "type": "email"},
		"firstname": {"value": "Ada", "type": "text"}
	}`
	req, err := http.NewRequestWithContext(
		s.T().Context(), http.MethodPost, s.server.URL+"/v1/hubspot-submit/", bytes.NewBufferString(body),
	)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	r := doRequest(s.T(), req)
	assertEnvelope(s.T(), r, http.StatusOK, types.StatusSuccess,
		"The form was submitted successfully. Thank you!")
}

func (s *ServerTestSuite) Test_SubmitFormLabelOverride() {
	s.hubspot.EXPECT().
		PostApplication(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), formLabelled).
		Return(hubspotSuccess())

	r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/hubspot-submit/", submitParams(formLabelled), nil))

	assertEnvelope(s.T(), r, http.StatusOK, types.StatusSuccess, "Danke!")
}

func (s *ServerTestSuite) Test_SubmitVerificationFailures() {
	tests := []struct {
		name    string
		path    string
		params  types.Params
		code    int
		message string
		fields  map[string]any
	}{
		{
			name:    "MissingFormID",
			path:    "/v1/hubspot-submit/",
			params:  types.Params{{Name: "email", Value: "ada@example.com"}},
			code:    http.StatusBadRequest,
			message: "The submitted data is invalid. Please check the form and try again.",
		},
		{
			name:    "UnknownForm",
			path:    "/v1/hubspot-submit/",
			params:  submitParams("404"),
			code:    http.StatusBadRequest,
			message: "The submitted data is invalid. Please check the form and try again.",
		},
		{
			name:    "InactiveForm",
			path:    "/v1/hubspot-submit/",
			params:  submitParams(formInactive),
			code:    http.StatusBadRequest,
			message: "The submitted data is invalid. Please check the form and try again.",
		},
		{
			name:    "WrongIntegration",
			path:    "/v1/hubspot-submit/",
			params:  submitParams(formMailchimp),
			code:    http.StatusBadRequest,
			message: "The submitted data is invalid. Please check the form and try again.",
		},
		{
			name:    "FormTypeMismatch",
			path:    "/v1/hubspot-submit/",
			params:  submitParams(formHubspot, types.Param{Name: types.ParamFormType, Value: "workable"}),
			code:    http.StatusBadRequest,
			message: "The submitted data is invalid. Please check the form and try again.",
		},
		{
			name:    "Honeypot",
			path:    "/v1/hubspot-submit/",
			params:  submitParams(formHubspot, types.Param{Name: types.ParamHoneypot, Value: "bot"}),
			code:    http.StatusForbidden,
			message: "The form could not be submitted. Please reload the page and try again.",
		},
		{
			name: "RequiredField",
			path: "/v1/hubspot-submit/",
			params: types.Params{
				{Name: types.ParamFormPostID, Value: formHubspot},
				{Name: "firstname", Value: "Ada"},
			},
			code:    http.StatusBadRequest,
			message: "Some fields are not filled in correctly. Please check the form and try again.",
			fields:  map[string]any{"email": "This field is required."},
		},
		{
			name: "InvalidEmail",
			path: "/v1/hubspot-submit/",
			params: types.Params{
				{Name: types.ParamFormPostID, Value: formHubspot},
				{Name: "email", Value: "not-an-email", Type: types.FieldTypeEmail},
			},
			code:    http.StatusBadRequest,
			message: "Some fields are not filled in correctly. Please check the form and try again.",
			fields:  map[string]any{"email": "This e-mail is not valid."},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := doRequest(s.T(), s.newRequest(http.MethodPost, tt.path, tt.params, nil))

			body := assertEnvelope(s.T(), r, tt.code, types.StatusError, tt.message)
			if tt.fields != nil {
				data, ok := body["data"].(map[string]any)
				s.Require().True(ok, "missing data")
				s.Equal(tt.fields, data["validation"])
			}
		})
	}
}

func (s *ServerTestSuite) Test_SubmitMalformedBody() {
	for name, body := range map[string]string{
		"NotJSON":          "name=value",
		"FieldNotAnObject": `{"email": "ada@example.com"}`,
		"MissingName":      `[{"value": "x"}]`,
	} {
		s.Run(name, func() {
			req, err := http.NewRequestWithContext(
				s.T().Context(), http.MethodPost, s.server.URL+"/v1/hubspot-submit/", bytes.NewBufferString(body),
			)
			s.Require().NoError(err)
			req.Header.Set("Content-Type", "application/json")

			r := doRequest(s.T(), req)
			assertEnvelope(s.T(), r, http.StatusBadRequest, types.StatusError,
				"The submitted data is invalid. Please check the form and try again.")
		})
	}
}

func (s *ServerTestSuite) Test_SubmitUnconfiguredIntegration() {
	r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/workable-submit/", submitParams(formHubspot), nil))
	s.Equal(http.StatusNotFound, r.code)
}

func (s *ServerTestSuite) Test_SubmitVendorErrorSendsFallback() {
	s.hubspot.EXPECT().
		PostApplication(gomock.Any(), "guid---1", gomock.Any(), gomock.Any(), formHubspot).
		Return(types.NewEnvelope(http.StatusBadRequest, "hubspotInvalidEmailError", types.EnvelopeData{
			Validation: types.FieldErrors{"email": "hubspotInvalidEmailError"},
		}))

	s.mailer.EXPECT().
		FallbackEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f mailer.Fallback) error {
			assert.Equal(s.T(), formHubspot, f.FormID)
			assert.Equal(s.T(), "hubspot", f.Integration)
			assert.Equal(s.T(), "The email address is invalid.", f.Envelope.Message)
			_, hasFormID := f.Params.Get(types.ParamFormPostID)
			assert.False(s.T(), hasFormID, "bookkeeping params must not be mailed")
			return nil
		})

	r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/hubspot-submit/", submitParams(formHubspot), nil))

	body := assertEnvelope(s.T(), r, http.StatusBadRequest, types.StatusError, "The email address is invalid.")
	s.Equal(
		map[string]any{"email": "The email address is invalid."},
		body["data"].(map[string]any)["validation"],
	)
}

func (s *ServerTestSuite) Test_SubmitTransportError() {
	s.hubspot.EXPECT().
		PostApplication(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(types.NewEnvelope(http.StatusBadGateway, "submitWpError", types.EnvelopeData{}))
	s.mailer.EXPECT().FallbackEmail(gomock.Any(), gomock.Any()).Return(assert.AnError)

	r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/hubspot-submit/", submitParams(formHubspot), nil))

	assertEnvelope(s.T(), r, http.StatusBadGateway, types.StatusError,
		"Something went wrong while submitting your form. Please try again.")
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for name, contents := range files {
		part, err := w.CreateFormFile(name, name+".txt")
		require.NoError(t, err)
		_, err = part.Write([]byte(contents))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func (s *ServerTestSuite) Test_SubmitDispatchPanicSendsFallbackAndCleansUp() {
	s.hubspot.EXPECT().
		PostApplication(gomock.Any(), "guid---1", gomock.Any(), gomock.Any(), formHubspot).
		DoAndReturn(func(
			_ context.Context, _ string, _ types.Params, files types.Files, _ string,
		) types.Envelope {
			if assert.Len(s.T(), files.Paths(), 1) {
				_, err := os.Stat(files.Paths()[0])
				assert.NoError(s.T(), err, "file should exist during dispatch")
			}
			panic("vendor client bug")
		})

	s.mailer.EXPECT().
		FallbackEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f mailer.Fallback) error {
			assert.Equal(s.T(), formHubspot, f.FormID)
			assert.Equal(s.T(), http.StatusInternalServerError, f.Envelope.Code)
			assert.Equal(s.T(), "ada@example.com", f.Params.Value("email"))
			return nil
		})

	body, contentType := multipartBody(s.T(),
		map[string]string{
			types.ParamFormPostID: formHubspot,
			"email":               `{"name": "email", "value": "ada@example.com", "type": "email"}`,
		},
		map[string]string{"cv": "curriculum vitae"},
	)

	req, err := http.NewRequestWithContext(s.T().Context(), http.MethodPost, s.server.URL+"/v1/hubspot-submit/", body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", contentType)

	r := doRequest(s.T(), req)

	assertEnvelope(s.T(), r, http.StatusInternalServerError, types.StatusError,
		"Something went wrong while submitting your form. Please try again.")
	s.assertTempDirEmpty()
}

func (s *ServerTestSuite) Test_SubmitStoresEntryAndArchives() {
	s.uploader.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(false, nil)
	s.uploader.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.uploader.EXPECT().StoreIdentifier(gomock.Any()).Return("archive-bucket", nil).AnyTimes()
	s.uploader.EXPECT().
		PresignedReadURL(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("https://archive.example.com/cv.txt", nil)

	s.hubspot.EXPECT().
		PostApplication(gomock.Any(), "guid---2", gomock.Any(), gomock.Any(), formStored).
		Return(hubspotSuccess())

	body, contentType := multipartBody(s.T(),
		map[string]string{
			types.ParamFormPostID: formStored,
			"email":               "ada@example.com",
		},
		map[string]string{"cv": "curriculum vitae"},
	)

	req, err := http.NewRequestWithContext(s.T().Context(), http.MethodPost, s.server.URL+"/v1/hubspot-submit/", body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", contentType)

	r := doRequest(s.T(), req)
	assertEnvelope(s.T(), r, http.StatusOK, types.StatusSuccess,
		"The form was submitted successfully. Thank you!")

	entries, err := models.ListEntries(s.T().Context(), s.tx, formStored, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Contains(string(entries[0].EntryValue), "ada@example.com")
	s.Contains(string(entries[0].EntryValue), "cv.txt")
	s.NotContains(string(entries[0].EntryValue), types.ParamFormPostID)
	s.assertTempDirEmpty()
}
