package internal

import (
	"path"
	"strings"

	"github.com/jackc/pgx/v5"
)

// sanitizeIdentifier quotes a possibly schema-qualified table name.
func sanitizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	parts := strings.Split(name, ".")
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.Trim(part, " \"")
		if trimmed == "" {
			continue
		}
		clean = append(clean, trimmed)
	}
	if len(clean) == 0 {
		clean = []string{name}
	}
	return pgx.Identifier(clean).Sanitize()
}

const definitionExt = ".json"

// definitionKey returns the object key or file name of a form definition.
func definitionKey(prefix, formID string) string {
	return path.Join(prefix, formID+definitionExt)
}

// formIDFromKey reverses definitionKey, reporting false for keys that do not
// name a definition.
func formIDFromKey(prefix, key string) (string, bool) {
	rest := strings.TrimPrefix(key, strings.TrimSuffix(prefix, "/")+"/")
	if prefix == "" {
		rest = key
	}
	if strings.Contains(rest, "/") || !strings.HasSuffix(rest, definitionExt) {
		return "", false
	}
	id := strings.TrimSuffix(rest, definitionExt)
	return id, id != ""
}
