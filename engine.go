package formlogic

import (
	"context"
)

// SubmissionEngine evaluates submissions against form definitions.
// Implementations are pure: no I/O, no state shared between calls.
type SubmissionEngine interface {
	// Evaluate resolves visibility, validates the answers and builds the
	// response projections. Rejections are returned as *RejectionError.
	Evaluate(ctx context.Context, form *Form, submission *Submission) (*EvaluationResult, error)

	// ResolveVisibility runs only the logic solver. A fired prevent-submit
	// rule is reported in the result rather than as an error.
	ResolveVisibility(ctx context.Context, form *Form, responses []ResponseItem) (*VisibilityResult, error)
}
