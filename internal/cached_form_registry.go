package internal

import (
	"context"
	"sync"
	"time"

	"github.com/lychee-technology/formlogic"
)

type cachedForm struct {
	form     *formlogic.Form
	loadedAt time.Time
}

// cachedFormRegistry is a read-through cache in front of a slower registry.
// Misses are not cached.
type cachedFormRegistry struct {
	inner formlogic.FormRegistry
	ttl   time.Duration
	now   func() time.Time

	mu    sync.RWMutex
	forms map[string]cachedForm
}

// NewCachedFormRegistry wraps inner with a TTL cache. A TTL of zero
// returns inner unchanged.
func NewCachedFormRegistry(inner formlogic.FormRegistry, ttl time.Duration) formlogic.FormRegistry {
	if ttl <= 0 {
		return inner
	}
	return &cachedFormRegistry{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		forms: make(map[string]cachedForm),
	}
}

func (c *cachedFormRegistry) GetForm(ctx context.Context, formID string) (*formlogic.Form, error) {
	c.mu.RLock()
	entry, ok := c.forms[formID]
	c.mu.RUnlock()
	if ok && c.now().Sub(entry.loadedAt) < c.ttl {
		return entry.form, nil
	}

	form, err := c.inner.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.forms[formID] = cachedForm{form: form, loadedAt: c.now()}
	c.mu.Unlock()
	return form, nil
}

func (c *cachedFormRegistry) ListForms(ctx context.Context) ([]string, error) {
	return c.inner.ListForms(ctx)
}
