package content

import (
	"strings"

	"github.com/goliatone/go-slug"
)

// NormalizeSlug turns titles or user input into URL-safe slugs, e.g.
// "Guia: 10 Tarefas" becomes "guia-10-tarefas".
func NormalizeSlug(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", ErrSlugRequired
	}
	normalized, err := slug.Normalize(trimmed)
	if err != nil {
		return "", err
	}
	if normalized == "" {
		return "", ErrSlugInvalid
	}
	return normalized, nil
}

// IsValidSlug reports whether value already satisfies the slug rules.
func IsValidSlug(value string) bool {
	return value != "" && slug.IsValid(value)
}
