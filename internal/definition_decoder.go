package internal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/formlogic"
)

var definitionSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal([]byte(formlogic.FormDefinitionSchema), &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form definition schema: %w", err)
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve form definition schema: %w", err)
	}
	return resolved, nil
})

// DecodeFormDefinition validates raw JSON against the form definition schema
// and decodes it. sourceID names the definition in errors when the document
// itself carries no usable id.
func DecodeFormDefinition(sourceID string, data []byte) (*formlogic.Form, error) {
	resolved, err := definitionSchema()
	if err != nil {
		return nil, formlogic.NewInternalError("form definition schema is unusable").WithCause(err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, formlogic.NewDefinitionError(sourceID, "definition is not valid JSON").WithCause(err)
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, formlogic.NewDefinitionError(sourceID, "definition does not match schema: "+err.Error()).WithCause(err)
	}

	var form formlogic.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, formlogic.NewDefinitionError(sourceID, "failed to decode definition").WithCause(err)
	}

	seen := NewSet[string]()
	for _, field := range form.Fields {
		if !seen.Add(field.ID) {
			return nil, formlogic.NewDefinitionError(form.ID, "duplicate field id").WithField(field.ID)
		}
	}
	return &form, nil
}
