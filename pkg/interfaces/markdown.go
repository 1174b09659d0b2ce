package interfaces

import (
	"context"
	"time"
)

// MarkdownParser converts raw Markdown bytes into HTML.
type MarkdownParser interface {
	Parse(markdown []byte) ([]byte, error)
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown rendering, keeping option names readable
// for configuration unmarshalling and CLI flags.
type ParseOptions struct {
	Extensions []string `yaml:"extensions" json:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps" json:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode" json:"safe_mode"`
}

// MarkdownService loads Markdown articles from disk and keeps blog articles
// in the content store in sync with them.
type MarkdownService interface {
	LoadDirectory(ctx context.Context, dir string, opts LoadOptions) ([]*Document, error)
	Render(ctx context.Context, markdown []byte, opts ParseOptions) ([]byte, error)
	ImportDirectory(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error)
	Sync(ctx context.Context, dir string, opts SyncOptions) (*SyncResult, error)
}

// Document is a Markdown file with parsed front matter.
type Document struct {
	FilePath     string
	Language     string
	FrontMatter  FrontMatter
	Body         []byte
	BodyHTML     []byte
	LastModified time.Time
	// Checksum is the SHA-256 of the file content.
	Checksum []byte
}

// FrontMatter models the metadata block at the top of an article.
type FrontMatter struct {
	Title    string         `yaml:"title" json:"title"`
	Slug     string         `yaml:"slug" json:"slug"`
	Excerpt  string         `yaml:"excerpt" json:"excerpt"`
	Author   string         `yaml:"author" json:"author"`
	Category string         `yaml:"category" json:"category"`
	Cover    string         `yaml:"cover" json:"cover"`
	Language string         `yaml:"language" json:"language"`
	Tags     []string       `yaml:"tags" json:"tags"`
	Date     time.Time      `yaml:"date" json:"date"`
	Draft    bool           `yaml:"draft" json:"draft"`
	Custom   map[string]any `yaml:",inline" json:"custom"`
}

// LoadOptions fine-tunes how documents are discovered.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
}

// ImportOptions controls how documents become blog articles.
type ImportOptions struct {
	LoadOptions
	// DryRun reports what would change without writing.
	DryRun bool
	// Parser overrides the service's rendering defaults.
	Parser *ParseOptions
}

// SyncOptions extends ImportOptions with orphan removal.
type SyncOptions struct {
	ImportOptions
	// DeleteOrphaned removes imported articles whose file no longer exists.
	DeleteOrphaned bool
}

// ImportResult lists the record ids touched by an import.
type ImportResult struct {
	Created []string
	Updated []string
	Skipped []string
	Errors  []error
}

// SyncResult summarises a sync run.
type SyncResult struct {
	Created int
	Updated int
	Deleted int
	Skipped int
	Errors  []error
}
