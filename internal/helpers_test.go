package internal

import (
	"github.com/lychee-technology/formlogic"
)

func textField(id string) formlogic.FieldDefinition {
	return formlogic.FieldDefinition{ID: id, FieldType: formlogic.FieldTypeShortText, Title: "Question " + id}
}

func yesNoField(id string) formlogic.FieldDefinition {
	return formlogic.FieldDefinition{ID: id, FieldType: formlogic.FieldTypeYesNo, Title: "Question " + id}
}

func showRule(id, source string, value any, targets ...string) formlogic.LogicRule {
	return formlogic.LogicRule{
		ID:        id,
		LogicType: formlogic.LogicTypeShowFields,
		Conditions: []formlogic.Condition{
			{Field: source, State: formlogic.ConditionEquals, Value: value},
		},
		Show: targets,
	}
}

func preventRule(id, source string, value any, message string) formlogic.LogicRule {
	return formlogic.LogicRule{
		ID:        id,
		LogicType: formlogic.LogicTypePreventSubmit,
		Conditions: []formlogic.Condition{
			{Field: source, State: formlogic.ConditionEquals, Value: value},
		},
		PreventSubmitMessage: message,
	}
}

func answer(field formlogic.FieldDefinition, value string) formlogic.ResponseItem {
	return formlogic.ResponseItem{FieldID: field.ID, FieldType: field.FieldType, Question: field.Title, Answer: value}
}

func responsesByID(items ...formlogic.ResponseItem) map[string]*formlogic.ResponseItem {
	out := make(map[string]*formlogic.ResponseItem, len(items))
	for i := range items {
		if _, ok := out[items[i].FieldID]; !ok {
			out[items[i].FieldID] = &items[i]
		}
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }
