package markdown

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-sitecontent/internal/logging"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// Config controls how the Markdown service discovers and parses files.
type Config struct {
	BasePath        string
	DefaultLanguage string
	Languages       []string
	Pattern         string
	Recursive       bool
	Parser          interfaces.ParseOptions
	// FS overrides the filesystem rooted at BasePath.
	FS fs.FS
}

// Service implements interfaces.MarkdownService over a directory of
// Markdown files and a content store.
type Service struct {
	cfg      Config
	parser   interfaces.MarkdownParser
	loader   *Loader
	importer *Importer
	logger   interfaces.Logger
}

var _ interfaces.MarkdownService = (*Service)(nil)

// NewService constructs a Markdown service. When parser is nil a goldmark
// parser with cfg.Parser defaults is used.
func NewService(cfg Config, store ArticleStore, parser interfaces.MarkdownParser, logger interfaces.Logger) (*Service, error) {
	filesystem := cfg.FS
	if filesystem == nil {
		var err error
		if filesystem, err = prepareFilesystem(cfg.BasePath); err != nil {
			return nil, err
		}
	}
	if parser == nil {
		parser = NewGoldmarkParser(cfg.Parser)
	}
	if logger == nil {
		logger = logging.NoOp()
	}

	loader := NewLoader(filesystem, LoaderConfig{
		BasePath:        cfg.BasePath,
		DefaultLanguage: cfg.DefaultLanguage,
		Languages:       cfg.Languages,
		Pattern:         cfg.Pattern,
		Recursive:       cfg.Recursive,
	})

	return &Service{
		cfg:    cfg,
		parser: parser,
		loader: loader,
		importer: NewImporter(ImporterConfig{
			Store:  store,
			Parser: parser,
			Logger: logger,
		}),
		logger: logger,
	}, nil
}

// Load reads and renders a single document.
func (s *Service) Load(ctx context.Context, path string) (*interfaces.Document, error) {
	result, err := s.loader.LoadFile(ctx, s.normalisePath(path))
	if err != nil {
		return nil, err
	}
	if err := s.renderDocument(ctx, result.Document, interfaces.ParseOptions{}); err != nil {
		return nil, err
	}
	return result.Document, nil
}

// LoadDirectory reads and renders every matching document under dir.
func (s *Service) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.Document, error) {
	return s.loadDirectory(ctx, dir, opts, interfaces.ParseOptions{})
}

// Render converts Markdown into HTML, layering opts over the defaults.
func (s *Service) Render(ctx context.Context, markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parser.ParseWithOptions(markdown, mergeParseOptions(s.cfg.Parser, opts))
}

// ImportDirectory upserts every document under dir as a blog article.
func (s *Service) ImportDirectory(ctx context.Context, dir string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	docs, err := s.loadDirectory(ctx, dir, opts.LoadOptions, parseOverrides(opts.Parser))
	if err != nil {
		return nil, err
	}
	result, err := s.importer.ImportDocuments(ctx, docs, opts)
	if result != nil {
		s.logger.Info("markdown.import.completed",
			"dir", dir,
			"dry_run", opts.DryRun,
			"created", len(result.Created),
			"updated", len(result.Updated),
			"skipped", len(result.Skipped),
			"errors", len(result.Errors),
		)
	}
	return result, err
}

// Sync imports dir and optionally removes articles whose file is gone.
func (s *Service) Sync(ctx context.Context, dir string, opts interfaces.SyncOptions) (*interfaces.SyncResult, error) {
	scope, err := s.loader.Scope(s.normalisePath(dir), opts.LoadOptions)
	if err != nil {
		return nil, err
	}
	docs, err := s.loadDirectory(ctx, dir, opts.LoadOptions, parseOverrides(opts.Parser))
	if err != nil {
		return nil, err
	}
	result, err := s.importer.SyncDocuments(ctx, docs, scope, opts)
	if result != nil {
		s.logger.Info("markdown.sync.completed",
			"dir", dir,
			"dry_run", opts.DryRun,
			"created", result.Created,
			"updated", result.Updated,
			"deleted", result.Deleted,
			"skipped", result.Skipped,
			"errors", len(result.Errors),
		)
	}
	return result, err
}

// BasePath returns the directory the service reads from.
func (s *Service) BasePath() string {
	return s.cfg.BasePath
}

func (s *Service) loadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions, overrides interfaces.ParseOptions) ([]*interfaces.Document, error) {
	results, err := s.loader.LoadDirectory(ctx, s.normalisePath(dir), opts)
	if err != nil {
		return nil, err
	}

	docs := make([]*interfaces.Document, 0, len(results))
	for _, result := range results {
		if err := s.renderDocument(ctx, result.Document, overrides); err != nil {
			return nil, err
		}
		docs = append(docs, result.Document)
	}
	return docs, nil
}

func (s *Service) renderDocument(ctx context.Context, doc *interfaces.Document, overrides interfaces.ParseOptions) error {
	if doc == nil {
		return errors.New("markdown service: document is nil")
	}
	html, err := s.Render(ctx, doc.Body, overrides)
	if err != nil {
		return fmt.Errorf("markdown render document %s: %w", doc.FilePath, err)
	}
	doc.BodyHTML = html
	return nil
}

func (s *Service) normalisePath(path string) string {
	if strings.TrimSpace(path) == "" {
		return "."
	}
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) && strings.TrimSpace(s.cfg.BasePath) != "" {
		if rel, err := filepath.Rel(s.cfg.BasePath, clean); err == nil {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(clean)
}

func parseOverrides(opts *interfaces.ParseOptions) interfaces.ParseOptions {
	if opts == nil {
		return interfaces.ParseOptions{}
	}
	return *opts
}

func mergeParseOptions(base, override interfaces.ParseOptions) interfaces.ParseOptions {
	result := base
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string(nil), override.Extensions...)
	}
	if override.HardWraps {
		result.HardWraps = true
	}
	if override.SafeMode {
		result.SafeMode = true
	}
	return result
}

func prepareFilesystem(basePath string) (fs.FS, error) {
	if strings.TrimSpace(basePath) == "" {
		basePath = "."
	}
	if _, err := os.Stat(basePath); err != nil {
		return nil, fmt.Errorf("markdown service: stat base path %s: %w", basePath, err)
	}
	return os.DirFS(basePath), nil
}
