package internal

import (
	"strings"

	"github.com/lychee-technology/formlogic"
)

// answerShape is where a field type keeps its answer inside a ResponseItem.
type answerShape int

const (
	shapeScalar answerShape = iota
	shapeMulti
	shapeTable
	shapeFile
)

// scalarValidator checks one non-empty string answer against its field.
type scalarValidator func(field *formlogic.FieldDefinition, answer string) *formlogic.EngineError

// fieldKind describes how the engine treats one field type.
type fieldKind struct {
	// answerable fields must receive exactly one response.
	answerable bool
	autoReply  bool
	json       bool
	shape      answerShape
	// semantics is the comparison strategy used when a condition does not
	// name one.
	semantics formlogic.ConditionValueType
	scalar    scalarValidator
}

var fieldCatalog = map[formlogic.FieldType]fieldKind{
	formlogic.FieldTypeSection:    {shape: shapeScalar, semantics: formlogic.ConditionValueSingle},
	formlogic.FieldTypeStatement:  {shape: shapeScalar, semantics: formlogic.ConditionValueSingle, json: true},
	formlogic.FieldTypeImage:      {shape: shapeScalar, semantics: formlogic.ConditionValueSingle, json: true},
	formlogic.FieldTypeShortText:  basicKind(shapeScalar, formlogic.ConditionValueSingle, validateText),
	formlogic.FieldTypeLongText:   basicKind(shapeScalar, formlogic.ConditionValueSingle, validateText),
	formlogic.FieldTypeNumber:     basicKind(shapeScalar, formlogic.ConditionValueNumber, validateNumber),
	formlogic.FieldTypeDecimal:    basicKind(shapeScalar, formlogic.ConditionValueNumber, validateDecimal),
	formlogic.FieldTypeDropdown:   basicKind(shapeScalar, formlogic.ConditionValueSingle, validateDropdown),
	formlogic.FieldTypeRadio:      basicKind(shapeScalar, formlogic.ConditionValueSingle, validateRadio),
	formlogic.FieldTypeCheckbox:   basicKind(shapeMulti, formlogic.ConditionValueMulti, nil),
	formlogic.FieldTypeYesNo:      basicKind(shapeScalar, formlogic.ConditionValueSingle, validateYesNo),
	formlogic.FieldTypeDate:       basicKind(shapeScalar, formlogic.ConditionValueSingle, validateDate),
	formlogic.FieldTypeRating:     basicKind(shapeScalar, formlogic.ConditionValueNumber, validateRating),
	formlogic.FieldTypeTable:      basicKind(shapeTable, formlogic.ConditionValueSingle, nil),
	formlogic.FieldTypeAttachment: basicKind(shapeFile, formlogic.ConditionValueSingle, nil),
	formlogic.FieldTypeEmail:      basicKind(shapeScalar, formlogic.ConditionValueSingle, validateEmail),
	formlogic.FieldTypeMobile:     basicKind(shapeScalar, formlogic.ConditionValueSingle, validateMobile),
	formlogic.FieldTypeNRIC:       basicKind(shapeScalar, formlogic.ConditionValueSingle, validateNRIC),
}

func basicKind(shape answerShape, semantics formlogic.ConditionValueType, scalar scalarValidator) fieldKind {
	return fieldKind{
		answerable: true,
		autoReply:  true,
		json:       true,
		shape:      shape,
		semantics:  semantics,
		scalar:     scalar,
	}
}

// lookupFieldKind returns the catalog entry for a field type. Unknown types
// are treated as answerable free text without format checks.
func lookupFieldKind(fieldType formlogic.FieldType) fieldKind {
	if kind, ok := fieldCatalog[fieldType]; ok {
		return kind
	}
	return basicKind(shapeScalar, formlogic.ConditionValueSingle, nil)
}

// isEmpty reports whether the response carries no answer for this kind.
func (k fieldKind) isEmpty(resp *formlogic.ResponseItem) bool {
	if resp == nil {
		return true
	}
	switch k.shape {
	case shapeMulti:
		for _, selection := range resp.AnswerArray {
			if strings.TrimSpace(selection) != "" {
				return false
			}
		}
		return strings.TrimSpace(resp.Answer) == ""
	case shapeTable:
		for _, row := range resp.TableRows {
			for _, cell := range row {
				if strings.TrimSpace(cell) != "" {
					return false
				}
			}
		}
		return true
	case shapeFile:
		return attachmentSize(resp) == 0 && strings.TrimSpace(resp.Answer) == ""
	default:
		return strings.TrimSpace(resp.Answer) == ""
	}
}

// conditionAnswers returns the non-empty answers a condition compares against.
func (k fieldKind) conditionAnswers(resp *formlogic.ResponseItem) []string {
	if resp == nil {
		return nil
	}
	var answers []string
	switch k.shape {
	case shapeMulti:
		for _, selection := range resp.AnswerArray {
			if strings.TrimSpace(selection) != "" {
				answers = append(answers, selection)
			}
		}
	case shapeTable:
		return nil
	default:
		if strings.TrimSpace(resp.Answer) != "" {
			answers = append(answers, resp.Answer)
		}
	}
	return answers
}

func attachmentSize(resp *formlogic.ResponseItem) int64 {
	if resp == nil || resp.Attachment == nil {
		return 0
	}
	return int64(len(resp.Attachment.Content))
}
