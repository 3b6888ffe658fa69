package internal

import (
	"strings"

	"github.com/lychee-technology/formlogic"
)

// projectResponses converts validated responses into display form, keeping
// their form order.
func projectResponses(validated []formlogic.ValidatedResponse) []formlogic.ProjectedResponse {
	out := make([]formlogic.ProjectedResponse, 0, len(validated))
	for _, v := range validated {
		out = append(out, projectResponse(v))
	}
	return out
}

func projectResponse(v formlogic.ValidatedResponse) formlogic.ProjectedResponse {
	p := formlogic.ProjectedResponse{
		FieldID:   v.Field.ID,
		Question:  v.Field.Title,
		FieldType: v.Field.FieldType,
		IsVisible: v.IsVisible,
		MyInfo:    v.Field.MyInfo,
	}

	switch lookupFieldKind(v.Field.FieldType).shape {
	case shapeMulti:
		p.Answer = strings.Join(v.Response.AnswerArray, ", ")
	case shapeTable:
		p.Question = tableQuestion(&v.Field)
		p.TableRows = v.Response.TableRows
		lines := make([]string, 0, len(v.Response.TableRows))
		for _, row := range v.Response.TableRows {
			lines = append(lines, strings.Join(row, ","))
		}
		p.Answer = strings.Join(lines, "\n")
	case shapeFile:
		p.Answer = v.Response.Answer
		if v.Response.Attachment != nil && v.Response.Attachment.Filename != "" {
			p.Answer = v.Response.Attachment.Filename
		}
	default:
		p.Answer = v.Response.Answer
	}
	p.AnswerLines = strings.Split(p.Answer, "\n")
	p.Verified = v.Field.Verifiable && strings.TrimSpace(p.Answer) != ""
	return p
}

// tableQuestion renders a table title followed by its column titles.
func tableQuestion(field *formlogic.FieldDefinition) string {
	titles := make([]string, 0, len(field.Columns))
	for _, col := range field.Columns {
		titles = append(titles, col.Title)
	}
	return field.Title + " (" + strings.Join(titles, ", ") + ")"
}

// buildFormData renders the admin view: every projected response.
func buildFormData(projected []formlogic.ProjectedResponse) []formlogic.ProjectionRow {
	return buildRows(projected, func(formlogic.ProjectedResponse) bool { return true })
}

// buildJSONData renders the structured view, which leaves out section headers.
func buildJSONData(projected []formlogic.ProjectedResponse) []formlogic.ProjectionRow {
	return buildRows(projected, func(p formlogic.ProjectedResponse) bool {
		return lookupFieldKind(p.FieldType).json
	})
}

// buildAutoReplyData renders the respondent copy: visible answers of types
// that support auto-reply.
func buildAutoReplyData(projected []formlogic.ProjectedResponse) []formlogic.ProjectionRow {
	return buildRows(projected, func(p formlogic.ProjectedResponse) bool {
		return p.IsVisible && lookupFieldKind(p.FieldType).autoReply
	})
}

func buildRows(projected []formlogic.ProjectedResponse, include func(formlogic.ProjectedResponse) bool) []formlogic.ProjectionRow {
	rows := make([]formlogic.ProjectionRow, 0, len(projected))
	for _, p := range projected {
		if !include(p) {
			continue
		}
		rows = append(rows, expandRows(p)...)
	}
	return rows
}

// expandRows yields one row per answer, or one row per submitted table row.
func expandRows(p formlogic.ProjectedResponse) []formlogic.ProjectionRow {
	if p.FieldType != formlogic.FieldTypeTable || len(p.TableRows) == 0 {
		return []formlogic.ProjectionRow{{
			Question:    p.Question,
			Answer:      p.Answer,
			AnswerLines: p.AnswerLines,
			FieldType:   p.FieldType,
		}}
	}
	rows := make([]formlogic.ProjectionRow, 0, len(p.TableRows))
	for _, row := range p.TableRows {
		answer := strings.Join(row, ",")
		rows = append(rows, formlogic.ProjectionRow{
			Question:    p.Question,
			Answer:      answer,
			AnswerLines: []string{answer},
			FieldType:   p.FieldType,
		})
	}
	return rows
}
