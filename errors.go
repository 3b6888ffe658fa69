package formlogic

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeFieldCountConflict ErrorType = "field_count_conflict"
	ErrorTypeInvalidAnswer      ErrorType = "invalid_answer"
	ErrorTypeInvalidAttachment  ErrorType = "invalid_attachment"
	ErrorTypePrevented          ErrorType = "prevented_by_submission_logic"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeInvalidDefinition  ErrorType = "invalid_definition"
	ErrorTypeInvalidInput       ErrorType = "invalid_input"
	ErrorTypeInternal           ErrorType = "internal"
	ErrorTypeUnavailable        ErrorType = "unavailable"
)

// EngineError represents every error produced by the engine and the form registries.
type EngineError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	FormID  string         `json:"formId,omitempty"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *EngineError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	if e.FormID != "" {
		return fmt.Sprintf("[%s:%s] form %s: %s", e.Type, e.Code, e.FormID, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to an EngineError
func (e *EngineError) WithDetails(details map[string]any) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail adds a single detail to an EngineError
func (e *EngineError) WithDetail(key string, value any) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to an EngineError
func (e *EngineError) WithCause(cause error) *EngineError {
	e.Cause = cause
	return e
}

// WithField adds field context to an EngineError
func (e *EngineError) WithField(field string) *EngineError {
	e.Field = field
	return e
}

// WithForm adds form context to an EngineError
func (e *EngineError) WithForm(formID string) *EngineError {
	e.FormID = formID
	return e
}

// Error codes
const (
	// Submission-level rejections
	ErrCodeMissingResponse         = "MISSING_RESPONSE"
	ErrCodeUnexpectedResponse      = "UNEXPECTED_RESPONSE"
	ErrCodePreventedBySubmitLogic  = "PREVENTED_BY_SUBMISSION_LOGIC"
	ErrCodeAttachmentTotalTooLarge = "ATTACHMENT_TOTAL_TOO_LARGE"

	// Field-level rejections
	ErrCodeRequiredAnswerMissing = "REQUIRED_ANSWER_MISSING"
	ErrCodeHiddenFieldAnswered   = "HIDDEN_FIELD_ANSWERED"
	ErrCodeFieldTypeMismatch     = "FIELD_TYPE_MISMATCH"
	ErrCodeInvalidFormat         = "INVALID_FORMAT"
	ErrCodeOutOfRange            = "OUT_OF_RANGE"
	ErrCodeInvalidOption         = "INVALID_OPTION"
	ErrCodeNonAnswerableAnswered = "NON_ANSWERABLE_ANSWERED"
	ErrCodeTableShape            = "TABLE_SHAPE"
	ErrCodeAttachmentExtension   = "ATTACHMENT_EXTENSION_NOT_ALLOWED"
	ErrCodeAttachmentTooLarge    = "ATTACHMENT_TOO_LARGE"
	ErrCodeAttachmentMissingFile = "ATTACHMENT_MISSING_FILE"

	// Registry errors
	ErrCodeFormNotFound      = "FORM_NOT_FOUND"
	ErrCodeDefinitionInvalid = "DEFINITION_INVALID"
	ErrCodeDuplicateForm     = "DUPLICATE_FORM"
	ErrCodeRegistryFailed    = "REGISTRY_FAILED"
	ErrCodeRegistryOpen      = "REGISTRY_UNAVAILABLE"
	ErrCodeInvalidSubmission = "INVALID_SUBMISSION"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// ============================================================================
// EngineError Constructors
// ============================================================================

// NewEngineError creates a new EngineError
func NewEngineError(errorType ErrorType, code, message string) *EngineError {
	return &EngineError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewFieldCountConflictError reports responses that do not cover exactly the
// form's answerable fields.
func NewFieldCountConflictError(code, field, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeFieldCountConflict,
		Code:    code,
		Message: message,
		Field:   field,
		Details: make(map[string]any),
	}
}

// NewInvalidAnswerError creates a field-level answer rejection
func NewInvalidAnswerError(code, field, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeInvalidAnswer,
		Code:    code,
		Message: message,
		Field:   field,
		Details: make(map[string]any),
	}
}

// NewInvalidAttachmentError creates an attachment rejection carrying the
// violated limit and the actual size in bytes.
func NewInvalidAttachmentError(code, field, message string, limit, size int64) *EngineError {
	return &EngineError{
		Type:    ErrorTypeInvalidAttachment,
		Code:    code,
		Message: message,
		Field:   field,
		Details: map[string]any{
			"limit": limit,
			"size":  size,
		},
	}
}

// NewPreventedError carries the administrator-authored message verbatim
func NewPreventedError(ruleID, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypePrevented,
		Code:    ErrCodePreventedBySubmitLogic,
		Message: message,
		Details: map[string]any{"ruleId": ruleID},
	}
}

// NewFormNotFoundError creates a form not found error
func NewFormNotFoundError(formID string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeFormNotFound,
		Message: "form not found",
		FormID:  formID,
		Details: make(map[string]any),
	}
}

// NewDefinitionError reports a stored form definition that cannot be decoded
func NewDefinitionError(formID, message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeInvalidDefinition,
		Code:    ErrCodeDefinitionInvalid,
		Message: message,
		FormID:  formID,
		Details: make(map[string]any),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Details: make(map[string]any),
	}
}

// ============================================================================
// Error Classification Helpers
// ============================================================================

// IsEngineError checks if an error is an EngineError
func IsEngineError(err error) bool {
	var engineErr *EngineError
	return errors.As(err, &engineErr)
}

// GetEngineError extracts an EngineError from an error chain
func GetEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	if engineErr, ok := GetEngineError(err); ok {
		return engineErr.Type == ErrorTypeNotFound
	}
	return false
}

// ============================================================================
// RejectionError
// ============================================================================

// RejectionError is the aggregate rejection of one submission.
// Submission-level kinds (field count conflict, prevent-submit) are always
// reported alone; field-level kinds may be batched.
type RejectionError struct {
	FormID string         `json:"formId,omitempty"`
	Errors []*EngineError `json:"errors"`
}

// NewRejectionError creates a rejection wrapping the given errors
func NewRejectionError(formID string, errs ...*EngineError) *RejectionError {
	return &RejectionError{FormID: formID, Errors: errs}
}

func (r *RejectionError) Error() string {
	if len(r.Errors) == 0 {
		return "submission rejected"
	}
	if len(r.Errors) == 1 {
		return "submission rejected: " + r.Errors[0].Error()
	}
	parts := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("submission rejected with %d errors: %s", len(r.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes every collected error to errors.Is and errors.As
func (r *RejectionError) Unwrap() []error {
	errs := make([]error, 0, len(r.Errors))
	for _, err := range r.Errors {
		errs = append(errs, err)
	}
	return errs
}

// Kind returns the dominant error type. Field count conflicts and
// prevent-submit outrank attachment errors, which outrank answer errors.
func (r *RejectionError) Kind() ErrorType {
	var kind ErrorType
	rank := map[ErrorType]int{
		ErrorTypeInvalidAnswer:      1,
		ErrorTypeInvalidAttachment:  2,
		ErrorTypePrevented:          3,
		ErrorTypeFieldCountConflict: 4,
	}
	for _, err := range r.Errors {
		if rank[err.Type] > rank[kind] {
			kind = err.Type
		}
	}
	return kind
}

// FieldErrors returns the errors attached to the given field
func (r *RejectionError) FieldErrors(fieldID string) []*EngineError {
	var out []*EngineError
	for _, err := range r.Errors {
		if err.Field == fieldID {
			out = append(out, err)
		}
	}
	return out
}

// HasCode reports whether any collected error carries the given code
func (r *RejectionError) HasCode(code string) bool {
	for _, err := range r.Errors {
		if err.Code == code {
			return true
		}
	}
	return false
}

// GetRejectionError extracts a RejectionError from an error chain
func GetRejectionError(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
