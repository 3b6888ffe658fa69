package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lychee-technology/formlogic"
	"github.com/lychee-technology/formlogic/factory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFormRegistry struct {
	forms   map[string]*formlogic.Form
	listErr error
}

func (s *stubFormRegistry) GetForm(ctx context.Context, formID string) (*formlogic.Form, error) {
	form, ok := s.forms[formID]
	if !ok {
		return nil, formlogic.NewFormNotFoundError(formID)
	}
	return form, nil
}

func (s *stubFormRegistry) ListForms(ctx context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	ids := make([]string, 0, len(s.forms))
	for id := range s.forms {
		ids = append(ids, id)
	}
	return ids, nil
}

func surveyForm() *formlogic.Form {
	return &formlogic.Form{
		ID: "survey",
		Fields: []formlogic.FieldDefinition{
			{ID: "pet", FieldType: formlogic.FieldTypeYesNo, Title: "Do you have a pet?", Required: true},
			{ID: "name", FieldType: formlogic.FieldTypeShortText, Title: "Pet name", Required: true},
			{ID: "doc", FieldType: formlogic.FieldTypeAttachment, Title: "Licence", AttachmentSizeMB: 1},
		},
		Logic: []formlogic.LogicRule{
			{
				ID:         "show-name",
				LogicType:  formlogic.LogicTypeShowFields,
				Conditions: []formlogic.Condition{{Field: "pet", State: formlogic.ConditionEquals, Value: "Yes"}},
				Show:       []string{"name"},
			},
			{
				ID:                   "no-cats",
				LogicType:            formlogic.LogicTypePreventSubmit,
				Conditions:           []formlogic.Condition{{Field: "name", State: formlogic.ConditionEquals, Value: "Tom"}},
				PreventSubmitMessage: "Tom is not accepted",
			},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	engine, err := factory.NewEngineWithConfig(formlogic.DefaultConfig())
	require.NoError(t, err)

	server := NewServer(engine, &stubFormRegistry{forms: map[string]*formlogic.Form{"survey": surveyForm()}}, 1<<20)
	server.RegisterRoutes()
	return server
}

func doRequest(t *testing.T, server *Server, method, path string, body any) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func responses(items ...formlogic.ResponseItem) formlogic.Submission {
	return formlogic.Submission{Responses: items}
}

func TestHandleSubmitAccepted(t *testing.T) {
	server := newTestServer(t)

	rec, resp := doRequest(t, server, http.MethodPost, "/api/v1/forms/survey/submissions", responses(
		formlogic.ResponseItem{FieldID: "pet", FieldType: formlogic.FieldTypeYesNo, Answer: "Yes"},
		formlogic.ResponseItem{FieldID: "name", FieldType: formlogic.FieldTypeShortText, Answer: "Rex"},
		formlogic.ResponseItem{FieldID: "doc", FieldType: formlogic.FieldTypeAttachment},
	))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "survey", data["formId"])
	assert.Equal(t, string(formlogic.SolverStateConverged), data["solverState"])
}

func TestHandleSubmitStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		submission formlogic.Submission
		wantStatus int
		wantCode   string
	}{
		{
			name: "missing response is a conflict",
			submission: responses(
				formlogic.ResponseItem{FieldID: "pet", FieldType: formlogic.FieldTypeYesNo, Answer: "No"},
			),
			wantStatus: http.StatusConflict,
			wantCode:   formlogic.ErrCodeMissingResponse,
		},
		{
			name: "hidden field answered",
			submission: responses(
				formlogic.ResponseItem{FieldID: "pet", FieldType: formlogic.FieldTypeYesNo, Answer: "No"},
				formlogic.ResponseItem{FieldID: "name", FieldType: formlogic.FieldTypeShortText, Answer: "Rex"},
				formlogic.ResponseItem{FieldID: "doc", FieldType: formlogic.FieldTypeAttachment},
			),
			wantStatus: http.StatusBadRequest,
			wantCode:   formlogic.ErrCodeHiddenFieldAnswered,
		},
		{
			name: "prevent submit",
			submission: responses(
				formlogic.ResponseItem{FieldID: "pet", FieldType: formlogic.FieldTypeYesNo, Answer: "Yes"},
				formlogic.ResponseItem{FieldID: "name", FieldType: formlogic.FieldTypeShortText, Answer: "Tom"},
				formlogic.ResponseItem{FieldID: "doc", FieldType: formlogic.FieldTypeAttachment},
			),
			wantStatus: http.StatusBadRequest,
			wantCode:   formlogic.ErrCodePreventedBySubmitLogic,
		},
		{
			name: "attachment too large",
			submission: responses(
				formlogic.ResponseItem{FieldID: "pet", FieldType: formlogic.FieldTypeYesNo, Answer: "No"},
				formlogic.ResponseItem{FieldID: "name", FieldType: formlogic.FieldTypeShortText},
				formlogic.ResponseItem{
					FieldID:   "doc",
					FieldType: formlogic.FieldTypeAttachment,
					Answer:    "licence.pdf",
					Attachment: &formlogic.Attachment{
						Filename: "licence.pdf",
						Content:  bytes.Repeat([]byte("a"), 1536*1024),
					},
				},
			),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)
			server.maxBodyBytes = 0

			rec, resp := doRequest(t, server, http.MethodPost, "/api/v1/forms/survey/submissions", tt.submission)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.False(t, resp.Success)
			require.NotEmpty(t, resp.Errors)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp.Errors[0].Code)
			}
		})
	}
}

func TestHandleSubmitUnknownForm(t *testing.T) {
	server := newTestServer(t)

	rec, resp := doRequest(t, server, http.MethodPost, "/api/v1/forms/missing/submissions", responses())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, formlogic.ErrCodeFormNotFound, resp.Errors[0].Code)
}

func TestHandleSubmitRejectsBadJSON(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/survey/submissions", bytes.NewReader([]byte(`{"responses":`)))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitBodyTooLarge(t *testing.T) {
	server := newTestServer(t)
	server.maxBodyBytes = 16

	rec, _ := doRequest(t, server, http.MethodPost, "/api/v1/forms/survey/submissions", responses(
		formlogic.ResponseItem{FieldID: "pet", FieldType: formlogic.FieldTypeYesNo, Answer: "Yes"},
	))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHandleSubmitMethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	rec, _ := doRequest(t, server, http.MethodGet, "/api/v1/forms/survey/submissions", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleVisibility(t *testing.T) {
	server := newTestServer(t)

	rec, resp := doRequest(t, server, http.MethodPost, "/api/v1/forms/survey/visibility", visibilityRequest{
		Responses: []formlogic.ResponseItem{
			{FieldID: "pet", FieldType: formlogic.FieldTypeYesNo, Answer: "Yes"},
			{FieldID: "name", FieldType: formlogic.FieldTypeShortText, Answer: "Tom"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(formlogic.SolverStatePrevented), data["state"])
	assert.Equal(t, "no-cats", data["preventSubmitRuleId"])

	visibility, ok := data["visibility"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"visible": true}, visibility["name"])
}

func TestHandleListForms(t *testing.T) {
	server := newTestServer(t)

	rec, resp := doRequest(t, server, http.MethodGet, "/api/v1/forms", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"survey"}, data["forms"])
}

func TestHandleListFormsRegistryFailure(t *testing.T) {
	engine, err := factory.NewEngineWithConfig(formlogic.DefaultConfig())
	require.NoError(t, err)
	server := NewServer(engine, &stubFormRegistry{listErr: errors.New("bucket unreachable")}, 0)
	server.RegisterRoutes()

	rec, resp := doRequest(t, server, http.MethodGet, "/api/v1/forms", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, resp.Error, "bucket unreachable")
}

func TestHandleGetForm(t *testing.T) {
	server := newTestServer(t)

	rec, resp := doRequest(t, server, http.MethodGet, "/api/v1/forms/survey", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "survey", data["id"])
}

func TestHandleUnknownAction(t *testing.T) {
	server := newTestServer(t)

	rec, _ := doRequest(t, server, http.MethodPost, "/api/v1/forms/survey/publish", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
