package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/lychee-technology/formlogic"
	"go.uber.org/zap"
)

// fileFormRegistry is a FormRegistry that loads every *.json form definition
// in a directory when it is constructed.
type fileFormRegistry struct {
	mu    sync.RWMutex
	dir   string
	forms map[string]*formlogic.Form
}

// NewFileFormRegistry creates a registry from the definitions in dir.
func NewFileFormRegistry(dir string) (formlogic.FormRegistry, error) {
	registry := &fileFormRegistry{
		dir:   dir,
		forms: make(map[string]*formlogic.Form),
	}
	if err := registry.load(); err != nil {
		return nil, err
	}
	return registry, nil
}

func (r *fileFormRegistry) load() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("failed to read form directory %s: %w", r.dir, err)
	}

	forms := make(map[string]*formlogic.Form)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != definitionExt {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read form file %s: %w", path, err)
		}
		form, err := DecodeFormDefinition(entry.Name(), data)
		if err != nil {
			return fmt.Errorf("failed to load form file %s: %w", path, err)
		}
		if _, exists := forms[form.ID]; exists {
			return formlogic.NewEngineError(formlogic.ErrorTypeInvalidDefinition, formlogic.ErrCodeDuplicateForm,
				"form id is defined by more than one file").WithForm(form.ID).WithDetail("file", path)
		}
		forms[form.ID] = form
	}

	r.mu.Lock()
	r.forms = forms
	r.mu.Unlock()

	zap.S().Infow("loaded form definitions", "dir", r.dir, "count", len(forms))
	return nil
}

func (r *fileFormRegistry) GetForm(ctx context.Context, formID string) (*formlogic.Form, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	form, ok := r.forms[formID]
	if !ok {
		return nil, formlogic.NewFormNotFoundError(formID)
	}
	return form, nil
}

func (r *fileFormRegistry) ListForms(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.forms))
	for id := range r.forms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
