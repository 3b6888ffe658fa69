package main

import (
	"fmt"
	"net/http"

	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// visibilityRequest is the body of POST /api/v1/forms/{formId}/visibility
type visibilityRequest struct {
	FormID    string                   `json:"formId,omitempty"`
	Responses []formlogic.ResponseItem `json:"responses"`
}

// formHandler routes requests under /api/v1/forms/{formId}
func (s *Server) formHandler(w http.ResponseWriter, r *http.Request) {
	formID, action, err := parseFormPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	switch action {
	case actionNone:
		s.handleGetForm(w, r, formID)
	case actionSubmissions:
		s.handleSubmit(w, r, formID)
	case actionVisibility:
		s.handleVisibility(w, r, formID)
	}
}

// handleListForms handles GET /api/v1/forms
func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ids, err := s.registry.ListForms(r.Context())
	if err != nil {
		zap.S().Errorw("list forms failed", "error", err)
		writeEngineError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	writeSuccess(w, http.StatusOK, map[string]any{"forms": ids})
}

// handleGetForm handles GET /api/v1/forms/{formId}
func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request, formID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	form, err := s.registry.GetForm(r.Context(), formID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, form)
}

// handleSubmit handles POST /api/v1/forms/{formId}/submissions
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, formID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	form, err := s.registry.GetForm(r.Context(), formID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if s.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}

	var submission formlogic.Submission
	if err := readJSONBody(r, &submission); err != nil {
		if status := statusForError(err); status == http.StatusRequestEntityTooLarge {
			writeError(w, status, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}
	if submission.FormID == "" {
		submission.FormID = formID
	}

	result, err := s.engine.Evaluate(r.Context(), form, &submission)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

// handleVisibility handles POST /api/v1/forms/{formId}/visibility
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request, formID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	form, err := s.registry.GetForm(r.Context(), formID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	if s.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	}

	var req visibilityRequest
	if err := readJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	result, err := s.engine.ResolveVisibility(r.Context(), form, req.Responses)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
