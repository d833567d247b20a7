package main

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/formbridge/formbridge/cmd/server/internal/models"
	"github.com/formbridge/formbridge/internal/integrations"
)

func authFor(a models.Auth) *clientAuth {
	return &clientAuth{id: a.ID.String(), token: authToken}
}

func (s *ServerTestSuite) Test_Ping() {
	tests := []struct {
		name string
		auth *clientAuth
		code int
	}{
		{name: "NoAuth", code: http.StatusUnauthorized},
		{name: "WrongToken", auth: &clientAuth{id: authCacheManager.ID.String(), token: "nope"}, code: http.StatusUnauthorized},
		{name: "UnknownID", auth: &clientAuth{id: uuid.NewString(), token: authToken}, code: http.StatusUnauthorized},
		{name: "Inactive", auth: authFor(authInactive), code: http.StatusUnauthorized},
		{name: "Active", auth: authFor(authEntryReader), code: http.StatusOK},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/ping/", nil, tt.auth))
			s.Equal(tt.code, r.code, r.body)

			if tt.code == http.StatusOK {
				body := decodeBody(s.T(), r)
				s.Equal("ready", body["status"])
				s.Equal([]any{"hubspot", "mailchimp"}, body["integrations"])
			}
		})
	}
}

func (s *ServerTestSuite) Test_CacheClear() {
	s.Run("MissingPermission", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/cache-clear/",
			map[string]string{"type": "hubspot"}, authFor(authFormManager)))
		s.Equal(http.StatusForbidden, r.code, r.body)
	})

	s.Run("MissingType", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/cache-clear/",
			map[string]string{}, authFor(authCacheManager)))
		s.Equal(http.StatusBadRequest, r.code, r.body)
	})

	s.Run("UnknownType", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/cache-clear/",
			map[string]string{"type": "workable"}, authFor(authCacheManager)))
		s.Equal(http.StatusBadRequest, r.code, r.body)

		body := decodeBody(s.T(), r)
		s.Contains(body["fields"], "type")
	})

	s.Run("Cleared", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/cache-clear/",
			map[string]string{"type": "hubspot"}, authFor(authCacheManager)))
		s.Equal(http.StatusOK, r.code, r.body)
		s.Equal("hubspot cache cleared", decodeBody(s.T(), r)["message"])
	})
}

func (s *ServerTestSuite) Test_IntegrationItems() {
	s.hubspot.EXPECT().GetItems(gomock.Any()).Return(map[string]integrations.Item{
		"guid---2": {ID: "guid---2", Title: "Newsletter"},
		"guid---1": {ID: "guid---1", Title: "Contact"},
		"guid---3": {ID: "guid---3", Title: "Careers"},
	})

	r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/integration-items/hubspot/", nil, authFor(authFormManager)))
	s.Require().Equal(http.StatusOK, r.code, r.body)

	var list struct {
		Items []struct {
			Label string `json:"label"`
			Value string `json:"value"`
		} `json:"items"`
		Count int `json:"count"`
	}
	s.Require().NoError(json.Unmarshal([]byte(r.body), &list))
	s.Equal(3, list.Count)
	s.Equal("Careers", list.Items[0].Label)
	s.Equal("Contact", list.Items[1].Label)
	s.Equal("guid---2", list.Items[2].Value)

	s.Run("UnknownIntegration", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/integration-items/workable/", nil, authFor(authFormManager)))
		s.Equal(http.StatusNotFound, r.code, r.body)
	})

	s.Run("NeedsFormManagement", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/integration-items/hubspot/", nil, authFor(authEntryReader)))
		s.Equal(http.StatusForbidden, r.code, r.body)
	})
}

func (s *ServerTestSuite) Test_IntegrationItem() {
	s.hubspot.EXPECT().GetItem(gomock.Any(), "guid---1").Return(integrations.Item{ID: "guid---1", Title: "Contact"}, true)
	s.hubspot.EXPECT().GetItem(gomock.Any(), "missing").Return(integrations.Item{}, false)

	r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/integration-items/hubspot/guid---1/", nil, authFor(authFormManager)))
	s.Require().Equal(http.StatusOK, r.code, r.body)
	s.Equal("Contact", decodeBody(s.T(), r)["title"])

	r = doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/integration-items/hubspot/missing/", nil, authFor(authFormManager)))
	s.Equal(http.StatusNotFound, r.code)
	notFoundBodyTester(s.T(), decodeBody(s.T(), r))
}

func (s *ServerTestSuite) Test_FormSettings() {
	auth := authFor(authFormManager)

	s.Run("List", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/form-settings/", nil, auth))
		s.Require().Equal(http.StatusOK, r.code, r.body)
		s.EqualValues(5, decodeBody(s.T(), r)["count"])
	})

	s.Run("Get", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/form-settings/"+formHubspot+"/", nil, auth))
		s.Require().Equal(http.StatusOK, r.code, r.body)

		body := decodeBody(s.T(), r)
		s.Equal("hubspot", body["integration"])
		s.Equal(map[string]any{"required_fields": "email"}, body["settings"])
	})

	s.Run("GetMissing", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/form-settings/404/", nil, auth))
		s.Equal(http.StatusNotFound, r.code)
	})

	s.Run("Update", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/form-settings/"+formHubspot+"/",
			map[string]any{"settings": map[string]string{
				"required_fields": "",
				"store_entries":   "true",
			}}, auth))
		s.Require().Equal(http.StatusOK, r.code, r.body)

		form, err := models.NewFormStore(s.tx).Form(s.T().Context(), formHubspot)
		s.Require().NoError(err)
		s.Equal(map[string]string{"store_entries": "true"}, form.Settings)
	})

	s.Run("UpdateMissing", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/form-settings/404/",
			map[string]any{"settings": map[string]string{"store_entries": "true"}}, auth))
		s.Equal(http.StatusNotFound, r.code, r.body)
	})

	s.Run("UpdateEmpty", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodPost, "/v1/form-settings/"+formHubspot+"/",
			map[string]any{"settings": map[string]string{}}, auth))
		s.Equal(http.StatusBadRequest, r.code, r.body)
	})
}

func (s *ServerTestSuite) Test_Entries() {
	s.Run("List", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/entries/"+formStored+"/", nil, authFor(authEntryReader)))
		s.Require().Equal(http.StatusOK, r.code, r.body)

		body := decodeBody(s.T(), r)
		s.EqualValues(1, body["count"])
		items, ok := body["items"].([]any)
		s.Require().True(ok)
		entry := items[0].(map[string]any)
		s.Equal(storedEntry.ID.String(), entry["id"])
		s.Equal(map[string]any{"params": map[string]any{"email": "seed@example.com"}}, entry["entry_value"])
	})

	s.Run("ListBadLimit", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/entries/"+formStored+"/?limit=-1", nil, authFor(authEntryReader)))
		s.Equal(http.StatusBadRequest, r.code, r.body)
	})

	s.Run("ListOtherForm", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/entries/"+formHubspot+"/", nil, authFor(authEntryReader)))
		s.Require().Equal(http.StatusOK, r.code, r.body)
		s.EqualValues(0, decodeBody(s.T(), r)["count"])
	})

	s.Run("ListNeedsPermission", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/entries/"+formStored+"/", nil, authFor(authCacheManager)))
		s.Equal(http.StatusForbidden, r.code, r.body)
	})

	s.Run("Get", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/entry/"+storedEntry.ID.String()+"/", nil, authFor(authEntryReader)))
		s.Require().Equal(http.StatusOK, r.code, r.body)
		s.Equal(formStored, decodeBody(s.T(), r)["form_id"])
	})

	for name, id := range map[string]string{"NotUUID": "abc", "Unknown": uuid.NewString()} {
		s.Run("Get"+name, func() {
			r := doRequest(s.T(), s.newRequest(http.MethodGet, "/v1/entry/"+id+"/", nil, authFor(authEntryReader)))
			s.Equal(http.StatusNotFound, r.code)
			notFoundBodyTester(s.T(), decodeBody(s.T(), r))
		})
	}

	s.Run("DeleteNeedsFormManagement", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodDelete, "/v1/entry/"+storedEntry.ID.String()+"/", nil, authFor(authEntryReader)))
		s.Equal(http.StatusForbidden, r.code, r.body)
	})

	s.Run("Delete", func() {
		r := doRequest(s.T(), s.newRequest(http.MethodDelete, "/v1/entry/"+storedEntry.ID.String()+"/", nil, authFor(authFormManager)))
		s.Require().Equal(http.StatusNoContent, r.code, r.body)

		exists, err := models.Exists[models.Entry](s.T().Context(), s.tx, "id = ?", storedEntry.ID)
		s.Require().NoError(err)
		assert.False(s.T(), exists)
	})
}
