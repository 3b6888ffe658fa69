package internal

import (
	"fmt"

	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// indexResponses deduplicates responses by field id, keeping the first
// occurrence, and checks that they cover exactly the answerable fields.
func indexResponses(form *formlogic.Form, responses []formlogic.ResponseItem) (map[string]*formlogic.ResponseItem, *formlogic.EngineError) {
	known := make(map[string]*formlogic.FieldDefinition, len(form.Fields))
	for i := range form.Fields {
		known[form.Fields[i].ID] = &form.Fields[i]
	}

	indexed := make(map[string]*formlogic.ResponseItem, len(responses))
	duplicates := 0
	for i := range responses {
		resp := &responses[i]
		if _, ok := known[resp.FieldID]; !ok {
			return nil, formlogic.NewFieldCountConflictError(formlogic.ErrCodeUnexpectedResponse, resp.FieldID,
				"response does not belong to any field on the form").WithForm(form.ID)
		}
		if _, seen := indexed[resp.FieldID]; seen {
			duplicates++
			continue
		}
		indexed[resp.FieldID] = resp
	}
	if duplicates > 0 {
		zap.S().Debugw("discarded duplicate responses", "form_id", form.ID, "count", duplicates)
	}

	for _, field := range form.Fields {
		if !lookupFieldKind(field.FieldType).answerable {
			continue
		}
		if _, ok := indexed[field.ID]; !ok {
			return nil, formlogic.NewFieldCountConflictError(formlogic.ErrCodeMissingResponse, field.ID,
				"answerable field has no response").WithForm(form.ID)
		}
	}
	return indexed, nil
}

// responseValidator checks each answer against its field definition and the
// resolved visibility.
type responseValidator struct {
	attachments formlogic.AttachmentConfig
	allowedExt  *Set[string]
}

func newResponseValidator(config formlogic.AttachmentConfig) *responseValidator {
	allowed := NewSet[string]()
	for _, ext := range config.AllowedExtensions {
		allowed.Add(normalizeExtension(ext))
	}
	return &responseValidator{attachments: config, allowedExt: allowed}
}

// validate walks the fields in form order and accumulates every field-level
// error before rejecting. A repeated field id is validated once, at its first
// position.
func (v *responseValidator) validate(form *formlogic.Form, visibility formlogic.VisibilityMap, responses map[string]*formlogic.ResponseItem) ([]formlogic.ValidatedResponse, error) {
	var (
		errs      []*formlogic.EngineError
		validated = make([]formlogic.ValidatedResponse, 0, len(responses))
		total     int64
		seen      = NewSet[string]()
	)

	for i := range form.Fields {
		field := &form.Fields[i]
		if !seen.Add(field.ID) {
			continue
		}
		resp, ok := responses[field.ID]
		if !ok {
			continue
		}
		visible := visibility.IsVisible(field.ID)
		fieldErrs := v.validateField(field, resp, visible, &total)
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}
		validated = append(validated, formlogic.ValidatedResponse{
			Field:     *field,
			Response:  *resp,
			IsVisible: visible,
		})
	}

	if v.attachments.MaxTotalSizeBytes > 0 && total > v.attachments.MaxTotalSizeBytes {
		errs = append(errs, formlogic.NewInvalidAttachmentError(formlogic.ErrCodeAttachmentTotalTooLarge, "",
			"attachments exceed the total size limit", v.attachments.MaxTotalSizeBytes, total))
	}

	if len(errs) > 0 {
		for _, err := range errs {
			err.FormID = form.ID
		}
		return nil, formlogic.NewRejectionError(form.ID, errs...)
	}
	return validated, nil
}

func (v *responseValidator) validateField(field *formlogic.FieldDefinition, resp *formlogic.ResponseItem, visible bool, total *int64) []*formlogic.EngineError {
	if resp.FieldType != field.FieldType {
		return []*formlogic.EngineError{
			formlogic.NewInvalidAnswerError(formlogic.ErrCodeFieldTypeMismatch, field.ID,
				fmt.Sprintf("response type %q does not match field type %q", resp.FieldType, field.FieldType)),
		}
	}

	kind := lookupFieldKind(field.FieldType)
	if !kind.answerable {
		if !kind.isEmpty(resp) {
			return []*formlogic.EngineError{
				formlogic.NewInvalidAnswerError(formlogic.ErrCodeNonAnswerableAnswered, field.ID, "field does not accept answers"),
			}
		}
		return nil
	}

	switch kind.shape {
	case shapeTable:
		return v.validateTable(field, resp, visible)
	case shapeFile:
		return single(v.validateAttachment(field, resp, visible, total))
	}

	empty := kind.isEmpty(resp)
	if !visible {
		if !empty {
			return single(formlogic.NewInvalidAnswerError(formlogic.ErrCodeHiddenFieldAnswered, field.ID,
				"hidden field must not be answered"))
		}
		return nil
	}
	if empty {
		if field.Required {
			return single(formlogic.NewInvalidAnswerError(formlogic.ErrCodeRequiredAnswerMissing, field.ID,
				"required field is not answered"))
		}
		return nil
	}

	if kind.shape == shapeMulti {
		return single(validateCheckbox(field, resp))
	}
	if kind.scalar != nil {
		return single(kind.scalar(field, resp.Answer))
	}
	return nil
}

func single(err *formlogic.EngineError) []*formlogic.EngineError {
	if err == nil {
		return nil
	}
	return []*formlogic.EngineError{err}
}
