package internal

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/lychee-technology/formlogic"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectDefinitionSQL = `SELECT definition FROM "form_definitions" WHERE form_id = $1`

func TestPostgresFormRegistry_GetForm(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectDefinitionSQL)).
		WithArgs("f1").
		WillReturnRows(pgxmock.NewRows([]string{"definition"}).AddRow([]byte(sampleDefinition)))

	registry := NewPostgresFormRegistry(mock, "form_definitions")
	form, err := registry.GetForm(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", form.ID)
	assert.Len(t, form.Fields, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFormRegistry_GetFormErrors(t *testing.T) {
	tests := []struct {
		name   string
		expect func(mock pgxmock.PgxPoolIface)
		check  func(t *testing.T, err error)
	}{
		{
			name: "not found",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectDefinitionSQL)).WithArgs("f1").WillReturnError(pgx.ErrNoRows)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, formlogic.IsNotFound(err))
			},
		},
		{
			name: "query failure",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectDefinitionSQL)).WithArgs("f1").WillReturnError(errors.New("connection reset"))
			},
			check: func(t *testing.T, err error) {
				engineErr, ok := formlogic.GetEngineError(err)
				require.True(t, ok)
				assert.Equal(t, formlogic.ErrCodeRegistryFailed, engineErr.Code)
				assert.ErrorContains(t, err, "failed to load form")
			},
		},
		{
			name: "id mismatch",
			expect: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(selectDefinitionSQL)).WithArgs("f1").
					WillReturnRows(pgxmock.NewRows([]string{"definition"}).AddRow([]byte(`{"id": "f9", "fields": []}`)))
			},
			check: func(t *testing.T, err error) {
				engineErr, ok := formlogic.GetEngineError(err)
				require.True(t, ok)
				assert.Equal(t, formlogic.ErrCodeDefinitionInvalid, engineErr.Code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.expect(mock)

			_, err = NewPostgresFormRegistry(mock, "form_definitions").GetForm(context.Background(), "f1")
			require.Error(t, err)
			tt.check(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresFormRegistry_ListForms(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT form_id FROM "forms"."definitions" ORDER BY form_id`)).
		WillReturnRows(pgxmock.NewRows([]string{"form_id"}).AddRow("a").AddRow("b"))

	ids, err := NewPostgresFormRegistry(mock, "forms.definitions").ListForms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFormRegistry_Writes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "form_definitions"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "form_definitions" (form_id, definition, updated_at)`)).
		WithArgs("f1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	registry := NewPostgresFormRegistry(mock, "form_definitions")
	ctx := context.Background()
	require.NoError(t, registry.EnsureTable(ctx))
	require.NoError(t, registry.PutForm(ctx, &formlogic.Form{ID: "f1"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
