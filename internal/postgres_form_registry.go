package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// PgxQuerier is the subset of a pgx pool the Postgres registry needs.
// *pgxpool.Pool and pgxmock pools both satisfy it.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresFormRegistry reads form definitions stored as JSONB, one row per form.
type PostgresFormRegistry struct {
	pool  PgxQuerier
	table string
}

// NewPostgresFormRegistry creates a registry over the given definitions table.
func NewPostgresFormRegistry(pool PgxQuerier, table string) *PostgresFormRegistry {
	return &PostgresFormRegistry{pool: pool, table: table}
}

// EnsureTable creates the definitions table if it does not exist.
func (r *PostgresFormRegistry) EnsureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	form_id TEXT PRIMARY KEY,
	definition JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, sanitizeIdentifier(r.table))
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	return nil
}

// PutForm upserts a form definition.
func (r *PostgresFormRegistry) PutForm(ctx context.Context, form *formlogic.Form) error {
	definition, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("failed to marshal form %s: %w", form.ID, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (form_id, definition, updated_at) VALUES ($1, $2, now())
ON CONFLICT (form_id) DO UPDATE SET definition = EXCLUDED.definition, updated_at = now()`, sanitizeIdentifier(r.table))
	if _, err := r.pool.Exec(ctx, query, form.ID, definition); err != nil {
		return formlogic.NewEngineError(formlogic.ErrorTypeInternal, formlogic.ErrCodeRegistryFailed, "failed to store form").
			WithForm(form.ID).WithCause(err)
	}
	return nil
}

func (r *PostgresFormRegistry) GetForm(ctx context.Context, formID string) (*formlogic.Form, error) {
	query := fmt.Sprintf("SELECT definition FROM %s WHERE form_id = $1", sanitizeIdentifier(r.table))
	var definition []byte
	if err := r.pool.QueryRow(ctx, query, formID).Scan(&definition); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, formlogic.NewFormNotFoundError(formID)
		}
		zap.S().Errorw("failed to load form definition", "form_id", formID, "table", r.table, "error", err)
		return nil, formlogic.NewEngineError(formlogic.ErrorTypeInternal, formlogic.ErrCodeRegistryFailed, "failed to load form").
			WithForm(formID).WithCause(err)
	}

	form, err := DecodeFormDefinition(formID, definition)
	if err != nil {
		return nil, err
	}
	if form.ID != formID {
		return nil, formlogic.NewDefinitionError(formID, "stored definition carries a different form id").
			WithDetail("definitionId", form.ID)
	}
	return form, nil
}

func (r *PostgresFormRegistry) ListForms(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT form_id FROM %s ORDER BY form_id", sanitizeIdentifier(r.table))
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query form table: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan form row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating form rows: %w", err)
	}
	return ids, nil
}
