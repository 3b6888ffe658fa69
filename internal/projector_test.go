package internal

import (
	"testing"

	"github.com/lychee-technology/formlogic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validatedOf(field formlogic.FieldDefinition, resp formlogic.ResponseItem, visible bool) formlogic.ValidatedResponse {
	return formlogic.ValidatedResponse{Field: field, Response: resp, IsVisible: visible}
}

func TestProjection_ViewScoping(t *testing.T) {
	section := formlogic.FieldDefinition{ID: "s", FieldType: formlogic.FieldTypeSection, Title: "Part 1"}
	text := textField("t")
	image := formlogic.FieldDefinition{ID: "i", FieldType: formlogic.FieldTypeImage, Title: "Map"}

	projected := projectResponses([]formlogic.ValidatedResponse{
		validatedOf(section, answer(section, ""), true),
		validatedOf(text, answer(text, "hello"), true),
		validatedOf(image, answer(image, ""), true),
	})

	formData := buildFormData(projected)
	jsonData := buildJSONData(projected)
	autoReply := buildAutoReplyData(projected)

	assert.Len(t, formData, 3)
	require.Len(t, jsonData, 2)
	assert.Equal(t, formlogic.FieldTypeShortText, jsonData[0].FieldType)
	assert.Equal(t, formlogic.FieldTypeImage, jsonData[1].FieldType)
	require.Len(t, autoReply, 1)
	assert.Equal(t, "hello", autoReply[0].Answer)
}

func TestProjection_AutoReplyExcludesHidden(t *testing.T) {
	shown, hidden := textField("a"), textField("b")
	projected := projectResponses([]formlogic.ValidatedResponse{
		validatedOf(shown, answer(shown, "x"), true),
		validatedOf(hidden, answer(hidden, ""), false),
	})

	assert.Len(t, buildFormData(projected), 2)
	autoReply := buildAutoReplyData(projected)
	require.Len(t, autoReply, 1)
	assert.Equal(t, "Question a", autoReply[0].Question)
}

func TestProjection_AnswerShapes(t *testing.T) {
	checkbox := formlogic.FieldDefinition{ID: "c", FieldType: formlogic.FieldTypeCheckbox, Title: "Pick"}
	long := formlogic.FieldDefinition{ID: "l", FieldType: formlogic.FieldTypeLongText, Title: "Story"}
	upload := attachmentField("u", 1)
	email := formlogic.FieldDefinition{ID: "e", FieldType: formlogic.FieldTypeEmail, Title: "Email", Verifiable: true, MyInfo: true}

	projected := projectResponses([]formlogic.ValidatedResponse{
		validatedOf(checkbox, formlogic.ResponseItem{FieldID: "c", FieldType: formlogic.FieldTypeCheckbox, AnswerArray: []string{"A", "B"}}, true),
		validatedOf(long, answer(long, "line one\nline two"), true),
		validatedOf(upload, attachmentAnswer(upload, "scan.pdf", 4), true),
		validatedOf(email, answer(email, "a@b.sg"), true),
	})

	require.Len(t, projected, 4)
	assert.Equal(t, "A, B", projected[0].Answer)
	assert.Equal(t, []string{"line one", "line two"}, projected[1].AnswerLines)
	assert.Equal(t, "scan.pdf", projected[2].Answer)
	assert.True(t, projected[3].Verified)
	assert.True(t, projected[3].MyInfo)
	assert.Equal(t, "[MyInfo] [verified] Email", formlogic.DecorateQuestion(projected[3]))
	assert.Equal(t, "[attachment] Upload u", formlogic.DecorateQuestion(projected[2]))
}

func TestProjection_TableExpandsRows(t *testing.T) {
	field := tableField()
	resp := formlogic.ResponseItem{
		FieldID:   "t",
		FieldType: formlogic.FieldTypeTable,
		TableRows: [][]string{{"Ann", "Parent"}, {"Bob", ""}},
	}
	projected := projectResponses([]formlogic.ValidatedResponse{validatedOf(field, resp, true)})

	require.Len(t, projected, 1)
	assert.Equal(t, "Family (Name, Relation)", projected[0].Question)
	assert.Equal(t, "Ann,Parent\nBob,", projected[0].Answer)

	rows := buildAutoReplyData(projected)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ann,Parent", rows[0].Answer)
	assert.Equal(t, "Bob,", rows[1].Answer)
	assert.Equal(t, "Family (Name, Relation)", rows[1].Question)
	assert.Len(t, buildFormData(projected), 2)
}
