package formlogic

import (
	"context"
)

// FormRegistry provides form definition lookup.
// Implementations can load forms from files, databases, object storage or
// other sources. Returned forms must be treated as read-only.
type FormRegistry interface {
	// GetForm retrieves a form definition by id. Unknown ids yield an
	// EngineError of type ErrorTypeNotFound.
	GetForm(ctx context.Context, formID string) (*Form, error)
	// ListForms returns the ids of all known forms in ascending order
	ListForms(ctx context.Context) ([]string, error)
}
