package markdown

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const defaultPattern = "*.md"

// LoaderConfig configures how Markdown files are discovered.
type LoaderConfig struct {
	// BasePath is the directory relative paths resolve against.
	BasePath string
	// DefaultLanguage is used when no language can be inferred.
	DefaultLanguage string
	// Languages enumerates the languages recognised in suffixes and
	// directory names.
	Languages []string
	// Pattern limits discovered files. Defaults to "*.md".
	Pattern   string
	Recursive bool
}

// Loader turns files of an fs.FS into Markdown documents.
type Loader struct {
	fs              fs.FS
	basePath        string
	defaultLanguage string
	languages       map[string]struct{}
	pattern         string
	recursive       bool
}

// NewLoader constructs a Loader over filesystem.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = defaultPattern
	}

	languages := make(map[string]struct{}, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		if lang = strings.ToLower(strings.TrimSpace(lang)); lang != "" {
			languages[lang] = struct{}{}
		}
	}

	basePath := ""
	if strings.TrimSpace(cfg.BasePath) != "" {
		basePath = filepath.Clean(cfg.BasePath)
	}

	return &Loader{
		fs:              filesystem,
		basePath:        basePath,
		defaultLanguage: strings.ToLower(strings.TrimSpace(cfg.DefaultLanguage)),
		languages:       languages,
		pattern:         pattern,
		recursive:       cfg.Recursive,
	}
}

// DocumentResult carries a parsed document with its raw source.
type DocumentResult struct {
	Document *interfaces.Document
	Source   []byte
}

// LoadFile reads and parses a single document.
func (l *Loader) LoadFile(ctx context.Context, name string) (*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel, err := l.relative(name)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", rel, err)
	}
	info, err := fs.Stat(l.fs, rel)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", rel, err)
	}

	doc, err := BuildDocument(rel, l.detectLanguage(rel), data, info.ModTime())
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	doc.Checksum = sum[:]

	return &DocumentResult{Document: doc, Source: data}, nil
}

// LoadDirectory walks dir and returns the matching documents sorted by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*DocumentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scope, err := l.Scope(dir, opts)
	if err != nil {
		return nil, err
	}
	root, recursive, pattern := scope.Root, scope.Recursive, scope.Pattern

	var results []*DocumentResult
	walkErr := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if current != root && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !matchesPattern(current, pattern) {
			return nil
		}

		result, err := l.LoadFile(ctx, current)
		if err != nil {
			return err
		}
		results = append(results, result)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Document.FilePath < results[j].Document.FilePath
	})
	return results, nil
}

// detectLanguage looks at a "name.<lang>.md" suffix, then the first path
// segment, then falls back to the default. Front matter wins over all of
// these in BuildDocument.
func (l *Loader) detectLanguage(rel string) string {
	base := path.Base(rel)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if ext := strings.TrimPrefix(path.Ext(stem), "."); ext != "" {
		if _, ok := l.languages[strings.ToLower(ext)]; ok {
			return strings.ToLower(ext)
		}
	}

	if first, _, ok := strings.Cut(rel, "/"); ok {
		if _, known := l.languages[strings.ToLower(first)]; known {
			return strings.ToLower(first)
		}
	}

	return l.defaultLanguage
}

// Scope describes the files a LoadDirectory call reads.
type Scope struct {
	Root      string
	Recursive bool
	Pattern   string
}

// Scope resolves dir and opts against the loader defaults.
func (l *Loader) Scope(dir string, opts interfaces.LoadOptions) (Scope, error) {
	root, err := l.relative(dir)
	if err != nil {
		return Scope{}, err
	}
	scope := Scope{Root: root, Recursive: l.recursive, Pattern: l.pattern}
	if opts.Recursive != nil {
		scope.Recursive = *opts.Recursive
	}
	if pattern := strings.TrimSpace(opts.Pattern); pattern != "" {
		scope.Pattern = pattern
	}
	return scope, nil
}

// Contains reports whether LoadDirectory with this scope would read name,
// a slash-separated path relative to the loader base.
func (s Scope) Contains(name string) bool {
	name = path.Clean(filepath.ToSlash(name))
	rest := name
	if s.Root != "." {
		prefix := s.Root + "/"
		if !strings.HasPrefix(name, prefix) {
			return false
		}
		rest = strings.TrimPrefix(name, prefix)
	}

	segments := strings.Split(rest, "/")
	dirs := segments[:len(segments)-1]
	if len(dirs) > 0 && !s.Recursive {
		return false
	}
	for _, dir := range dirs {
		if strings.HasPrefix(dir, ".") {
			return false
		}
	}
	return matchesPattern(name, s.Pattern)
}

func matchesPattern(name, pattern string) bool {
	pattern = strings.ReplaceAll(filepath.ToSlash(pattern), "**/", "")
	target := name
	if !strings.Contains(pattern, "/") {
		target = path.Base(name)
	}
	match, err := path.Match(pattern, target)
	return err == nil && match
}

func (l *Loader) relative(name string) (string, error) {
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) {
		if l.basePath == "" {
			return "", fmt.Errorf("markdown loader: absolute path %s provided without base path", name)
		}
		rel, err := filepath.Rel(l.basePath, clean)
		if err != nil {
			return "", fmt.Errorf("markdown loader: make relative %s: %w", name, err)
		}
		clean = rel
	}
	clean = filepath.ToSlash(clean)
	if clean == "" || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", fmt.Errorf("markdown loader: %s escapes base path", name)
	}
	return clean, nil
}
