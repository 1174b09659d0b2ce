package store

import (
	"strings"

	"github.com/goliatone/go-sitecontent/internal/content"
)

const clearedAtSuffix = "__cleared_at"

func (s *Store) singletonKey(typ content.Type, lang content.Language) string {
	return s.prefix + string(typ) + "_" + string(lang)
}

func (s *Store) collectionPrefix(typ content.Type, lang content.Language) string {
	return s.singletonKey(typ, lang) + "_"
}

func (s *Store) typePrefix(typ content.Type) string {
	return s.prefix + string(typ) + "_"
}

func (s *Store) clearedAtKey() string {
	return s.prefix + clearedAtSuffix
}

// recordKey builds the exact key for a record. Collection ids may be passed
// either bare or as the full key.
func (s *Store) recordKey(typ content.Type, lang content.Language, id string) string {
	if typ.IsSingleton() {
		return s.singletonKey(typ, lang)
	}
	return s.collectionPrefix(typ, lang) + s.bareID(typ, lang, id)
}

func (s *Store) bareID(typ content.Type, lang content.Language, id string) string {
	id = strings.TrimSpace(id)
	if trimmed, ok := strings.CutPrefix(id, s.collectionPrefix(typ, lang)); ok {
		return trimmed
	}
	return id
}

func (s *Store) ownsKey(key string) bool {
	return strings.HasPrefix(key, s.prefix)
}

// RecordID returns the bare id for id, which may be a bare id or the full
// storage key of a (typ, lang) collection record.
func (s *Store) RecordID(typ content.Type, lang content.Language, id string) string {
	return s.bareID(typ, lang, id)
}

// Key returns the storage key for a record.
func (s *Store) Key(typ content.Type, lang content.Language, id string) string {
	return s.recordKey(typ, lang, id)
}
