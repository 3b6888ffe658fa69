package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// submissionEngine implements formlogic.SubmissionEngine. It holds no
// per-submission state and is safe for concurrent use.
type submissionEngine struct {
	config    *formlogic.Config
	solver    *visibilitySolver
	validator *responseValidator
}

// NewSubmissionEngine creates a submission engine with the given configuration.
func NewSubmissionEngine(config *formlogic.Config) formlogic.SubmissionEngine {
	if config == nil {
		config = formlogic.DefaultConfig()
	}
	return &submissionEngine{
		config:    config,
		solver:    newVisibilitySolver(config.Solver),
		validator: newResponseValidator(config.Attachment),
	}
}

// Evaluate resolves visibility, validates and projects one submission.
func (e *submissionEngine) Evaluate(ctx context.Context, form *formlogic.Form, submission *formlogic.Submission) (*formlogic.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkInput(form, submission); err != nil {
		return nil, err
	}
	started := time.Now()

	responses, conflict := indexResponses(form, submission.Responses)
	if conflict != nil {
		return nil, e.reject(ctx, formlogic.NewRejectionError(form.ID, conflict))
	}

	graph := buildLogicGraph(form)
	solveStarted := time.Now()
	outcome := e.solver.solve(graph, responses)
	EmitLatency(ctx, "solve", time.Since(solveStarted).Milliseconds())
	EmitSolverPasses(ctx, form.ID, string(outcome.state), outcome.passes)

	if outcome.state == formlogic.SolverStatePrevented {
		prevented := formlogic.NewPreventedError(outcome.prevented.ruleID(), outcome.prevented.rule.PreventSubmitMessage).
			WithForm(form.ID)
		return nil, e.reject(ctx, formlogic.NewRejectionError(form.ID, prevented))
	}

	visibility := graph.visibilityMap(outcome.visible)
	validateStarted := time.Now()
	validated, err := e.validator.validate(form, visibility, responses)
	EmitLatency(ctx, "validate", time.Since(validateStarted).Milliseconds())
	if err != nil {
		if rejection, ok := formlogic.GetRejectionError(err); ok {
			return nil, e.reject(ctx, rejection)
		}
		return nil, err
	}

	projected := projectResponses(validated)
	if e.config.Projection.PrefixQuestions {
		for i := range projected {
			projected[i].Question = formlogic.DecorateQuestion(projected[i])
		}
	}

	result := &formlogic.EvaluationResult{
		SubmissionID:  uuid.Must(uuid.NewV7()),
		FormID:        form.ID,
		Visibility:    visibility,
		Responses:     projected,
		Validated:     validated,
		FormData:      buildFormData(projected),
		JSONData:      buildJSONData(projected),
		AutoReplyData: buildAutoReplyData(projected),
		SolverState:   outcome.state,
		Passes:        outcome.passes,
	}

	EmitLatency(ctx, "evaluate", time.Since(started).Milliseconds())
	zap.S().Infow("submission accepted",
		"form_id", form.ID,
		"submission_id", result.SubmissionID,
		"responses", len(projected),
		"solver_state", outcome.state,
		"passes", outcome.passes)
	return result, nil
}

// ResolveVisibility runs the solver alone. Responses for unknown fields are
// ignored and a firing PreventSubmit rule is reported, not returned as an error.
func (e *submissionEngine) ResolveVisibility(ctx context.Context, form *formlogic.Form, responses []formlogic.ResponseItem) (*formlogic.VisibilityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkInput(form, &formlogic.Submission{Responses: responses}); err != nil {
		return nil, err
	}

	indexed := make(map[string]*formlogic.ResponseItem, len(responses))
	for i := range responses {
		if _, seen := indexed[responses[i].FieldID]; !seen {
			indexed[responses[i].FieldID] = &responses[i]
		}
	}

	graph := buildLogicGraph(form)
	outcome := e.solver.solve(graph, indexed)
	result := &formlogic.VisibilityResult{
		FormID:     form.ID,
		Visibility: graph.visibilityMap(outcome.visible),
		State:      outcome.state,
		Passes:     outcome.passes,
	}
	if outcome.prevented != nil {
		result.PreventSubmitRuleID = outcome.prevented.ruleID()
		result.PreventSubmitMessage = outcome.prevented.rule.PreventSubmitMessage
	}
	return result, nil
}

func (e *submissionEngine) reject(ctx context.Context, rejection *formlogic.RejectionError) error {
	EmitRejection(ctx, rejection.FormID, string(rejection.Kind()))
	zap.S().Infow("submission rejected",
		"form_id", rejection.FormID,
		"kind", rejection.Kind(),
		"errors", len(rejection.Errors))
	return rejection
}

func checkInput(form *formlogic.Form, submission *formlogic.Submission) error {
	if form == nil {
		return formlogic.NewEngineError(formlogic.ErrorTypeInvalidInput, formlogic.ErrCodeInvalidSubmission, "form is required")
	}
	if submission == nil {
		return formlogic.NewEngineError(formlogic.ErrorTypeInvalidInput, formlogic.ErrCodeInvalidSubmission, "submission is required").
			WithForm(form.ID)
	}
	if submission.FormID != "" && submission.FormID != form.ID {
		return formlogic.NewEngineError(formlogic.ErrorTypeInvalidInput, formlogic.ErrCodeInvalidSubmission,
			"submission targets a different form").
			WithForm(form.ID).
			WithDetail("submissionFormId", submission.FormID)
	}
	return nil
}
