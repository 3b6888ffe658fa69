package internal

import (
	"fmt"
	"strings"

	"github.com/lychee-technology/formlogic"
)

// validateTable checks row count, row shape and each cell against its column.
func (v *responseValidator) validateTable(field *formlogic.FieldDefinition, resp *formlogic.ResponseItem, visible bool) []*formlogic.EngineError {
	if !visible {
		if !lookupFieldKind(formlogic.FieldTypeTable).isEmpty(resp) {
			return single(formlogic.NewInvalidAnswerError(formlogic.ErrCodeHiddenFieldAnswered, field.ID,
				"hidden table must not be answered"))
		}
		return nil
	}
	if field.Required && lookupFieldKind(formlogic.FieldTypeTable).isEmpty(resp) {
		return single(formlogic.NewInvalidAnswerError(formlogic.ErrCodeRequiredAnswerMissing, field.ID,
			"required table is not answered"))
	}

	rows := resp.TableRows
	if field.MinimumRows > 0 && len(rows) < field.MinimumRows {
		return single(formlogic.NewInvalidAnswerError(formlogic.ErrCodeTableShape, field.ID,
			fmt.Sprintf("table needs at least %d rows", field.MinimumRows)).WithDetail("rows", len(rows)))
	}
	if field.MaximumRows > 0 && len(rows) > field.MaximumRows {
		return single(formlogic.NewInvalidAnswerError(formlogic.ErrCodeTableShape, field.ID,
			fmt.Sprintf("table allows at most %d rows", field.MaximumRows)).WithDetail("rows", len(rows)))
	}

	var errs []*formlogic.EngineError
	for r, row := range rows {
		if len(row) != len(field.Columns) {
			errs = append(errs, formlogic.NewInvalidAnswerError(formlogic.ErrCodeTableShape, field.ID,
				fmt.Sprintf("row has %d cells, expected %d", len(row), len(field.Columns))).WithDetail("row", r))
			continue
		}
		for c := range field.Columns {
			if err := validateCell(field, &field.Columns[c], row[c]); err != nil {
				errs = append(errs, err.WithDetails(map[string]any{"row": r, "column": field.Columns[c].ID}))
			}
		}
	}
	return errs
}

func validateCell(table *formlogic.FieldDefinition, column *formlogic.ColumnDefinition, cell string) *formlogic.EngineError {
	if strings.TrimSpace(cell) == "" {
		if column.Required {
			return formlogic.NewInvalidAnswerError(formlogic.ErrCodeRequiredAnswerMissing, table.ID,
				"required column is not answered")
		}
		return nil
	}
	cellField := &formlogic.FieldDefinition{
		ID:        table.ID,
		FieldType: column.ColumnType,
		Title:     column.Title,
		Options:   column.Options,
	}
	if column.ColumnType == formlogic.FieldTypeDropdown {
		return validateDropdown(cellField, cell)
	}
	return validateText(cellField, cell)
}
