package content

import "strings"

// Type identifies a content kind. Singleton kinds hold one record per
// language; collection kinds hold many.
type Type string

const (
	TypeHome        Type = "home"
	TypeAbout       Type = "about"
	TypeServices    Type = "services"
	TypeContact     Type = "contact"
	TypeGlobal      Type = "global"
	TypeBlogArticle Type = "blogArticle"
	TypeFAQ         Type = "faq"
)

var singletonTypes = []Type{TypeHome, TypeAbout, TypeServices, TypeContact, TypeGlobal}

var collectionTypes = []Type{TypeBlogArticle, TypeFAQ}

// SingletonTypes lists the page kinds with one live record per language.
func SingletonTypes() []Type {
	return append([]Type(nil), singletonTypes...)
}

// CollectionTypes lists the kinds addressable by id or slug.
func CollectionTypes() []Type {
	return append([]Type(nil), collectionTypes...)
}

// AllTypes lists every known kind, singletons first.
func AllTypes() []Type {
	return append(SingletonTypes(), collectionTypes...)
}

// IsSingleton reports whether t is a singleton kind.
func (t Type) IsSingleton() bool {
	for _, candidate := range singletonTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsCollection reports whether t is a collection kind.
func (t Type) IsCollection() bool {
	for _, candidate := range collectionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Valid reports whether t is a known kind.
func (t Type) Valid() bool {
	return t.IsSingleton() || t.IsCollection()
}

func (t Type) String() string {
	return string(t)
}

// ParseType resolves a kind by name. Matching is case insensitive so CLI
// input like "blogarticle" resolves to TypeBlogArticle.
func ParseType(value string) (Type, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range AllTypes() {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", ErrUnknownType
}

// Language is one of the site's two languages.
type Language string

const (
	LanguagePT Language = "pt"
	LanguageEN Language = "en"
)

// Languages lists the supported languages, default first.
func Languages() []Language {
	return []Language{LanguagePT, LanguageEN}
}

// Valid reports whether l is supported.
func (l Language) Valid() bool {
	return l == LanguagePT || l == LanguageEN
}

func (l Language) String() string {
	return string(l)
}

// ParseLanguage normalizes input such as "PT" or "en-US".
func ParseLanguage(value string) (Language, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if base, _, ok := strings.Cut(normalized, "-"); ok {
		normalized = base
	}
	lang := Language(normalized)
	if !lang.Valid() {
		return "", ErrUnknownLanguage
	}
	return lang, nil
}
