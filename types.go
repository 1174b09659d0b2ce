package sitecontent

import (
	"github.com/goliatone/go-sitecontent/internal/content"
	"github.com/goliatone/go-sitecontent/internal/di"
	"github.com/goliatone/go-sitecontent/internal/store"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

type (
	Record   = content.Record
	Type     = content.Type
	Language = content.Language
	Payload  = content.Payload

	HomeContent     = content.HomeContent
	AboutContent    = content.AboutContent
	ServicesContent = content.ServicesContent
	ContactContent  = content.ContactContent
	GlobalSettings  = content.GlobalSettings
	BlogArticle     = content.BlogArticle
	FAQItem         = content.FAQItem

	ChangeEvent  = store.ChangeEvent
	Action       = store.Action
	StorageEvent = interfaces.StorageEvent
	ImportResult = interfaces.ImportResult
	SyncResult   = interfaces.SyncResult
)

const (
	TypeHome        = content.TypeHome
	TypeAbout       = content.TypeAbout
	TypeServices    = content.TypeServices
	TypeContact     = content.TypeContact
	TypeGlobal      = content.TypeGlobal
	TypeBlogArticle = content.TypeBlogArticle
	TypeFAQ         = content.TypeFAQ

	LanguagePT = content.LanguagePT
	LanguageEN = content.LanguageEN

	ActionSave   = store.ActionSave
	ActionUpdate = store.ActionUpdate
	ActionDelete = store.ActionDelete
	ActionClear  = store.ActionClear
)

// ParseType normalizes a content type name.
func ParseType(value string) (Type, error) { return content.ParseType(value) }

// ParseLanguage normalizes a language tag such as "PT" or "en-US".
func ParseLanguage(value string) (Language, error) { return content.ParseLanguage(value) }

// Option customises the container built by New.
type Option = di.Option

var (
	WithLoggerProvider  = di.WithLoggerProvider
	WithBunDB           = di.WithBunDB
	WithCache           = di.WithCache
	WithStorageArea     = di.WithStorageArea
	WithOrigin          = di.WithOrigin
	WithClock           = di.WithClock
	WithCommandRegistry = di.WithCommandRegistry
)
