package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lychee-technology/formlogic"
)

// Form actions addressed under /api/v1/forms/{formId}
const (
	actionNone        = ""
	actionSubmissions = "submissions"
	actionVisibility  = "visibility"
)

// parseFormPath parses /api/v1/forms/{formId} or /api/v1/forms/{formId}/{action}
func parseFormPath(path string) (formID string, action string, err error) {
	path = strings.TrimPrefix(path, "/api/v1/forms/")
	path = strings.Trim(path, "/")

	if path == "" {
		return "", "", fmt.Errorf("invalid path: empty form id")
	}

	parts := strings.Split(path, "/")

	switch len(parts) {
	case 1:
		return parts[0], actionNone, nil
	case 2:
		switch parts[1] {
		case actionSubmissions, actionVisibility:
			return parts[0], parts[1], nil
		}
		return "", "", fmt.Errorf("unknown form action: %s", parts[1])
	default:
		return "", "", fmt.Errorf("invalid path format")
	}
}

// statusForError maps engine and registry errors to HTTP status codes
func statusForError(err error) int {
	if rejection, ok := formlogic.GetRejectionError(err); ok {
		switch rejection.Kind() {
		case formlogic.ErrorTypeFieldCountConflict:
			return http.StatusConflict
		case formlogic.ErrorTypeInvalidAttachment:
			if rejection.HasCode(formlogic.ErrCodeAttachmentTooLarge) ||
				rejection.HasCode(formlogic.ErrCodeAttachmentTotalTooLarge) {
				return http.StatusRequestEntityTooLarge
			}
			return http.StatusBadRequest
		default:
			return http.StatusBadRequest
		}
	}

	if engineErr, ok := formlogic.GetEngineError(err); ok {
		switch engineErr.Type {
		case formlogic.ErrorTypeNotFound:
			return http.StatusNotFound
		case formlogic.ErrorTypeInvalidInput:
			return http.StatusBadRequest
		case formlogic.ErrorTypeUnavailable:
			return http.StatusServiceUnavailable
		}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}

	return http.StatusInternalServerError
}

// APIResponse is the standard response format
type APIResponse struct {
	Success bool                     `json:"success"`
	Data    any                      `json:"data,omitempty"`
	Error   string                   `json:"error,omitempty"`
	Errors  []*formlogic.EngineError `json:"errors,omitempty"`
}

// writeJSON writes JSON response to http.ResponseWriter
func writeJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeEngineError writes an error response carrying every collected rejection
func writeEngineError(w http.ResponseWriter, err error) error {
	resp := APIResponse{Success: false, Error: err.Error()}
	if rejection, ok := formlogic.GetRejectionError(err); ok {
		resp.Errors = rejection.Errors
	} else if engineErr, ok := formlogic.GetEngineError(err); ok {
		resp.Errors = []*formlogic.EngineError{engineErr}
	}
	return writeJSON(w, statusForError(err), resp)
}

// writeSuccess writes a success response
func writeSuccess(w http.ResponseWriter, statusCode int, data any) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: true,
		Data:    data,
	})
}

// readJSONBody reads and decodes JSON from request body
func readJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
