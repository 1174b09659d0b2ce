package markdown

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"
	"unicode"

	"github.com/goliatone/go-sitecontent/internal/content"
	"github.com/goliatone/go-sitecontent/internal/logging"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

var (
	ErrStoreRequired   = errors.New("markdown importer: article store is required")
	ErrLanguageMissing = errors.New("markdown importer: language could not be determined")
	ErrTitleMissing    = errors.New("markdown importer: title could not be determined")
	ErrPersistFailed   = errors.New("markdown importer: store rejected the article")
)

const (
	sourcePrefix   = "markdown:"
	wordsPerMinute = 200
	excerptLimit   = 240
)

// ArticleStore is the slice of the content store the importer writes to.
type ArticleStore interface {
	Available() bool
	GetAll(ctx context.Context, typ content.Type, lang content.Language) []content.Record
	Save(ctx context.Context, record content.Record) content.Record
	Update(ctx context.Context, record content.Record) content.Record
	Delete(ctx context.Context, typ content.Type, lang content.Language, id string) bool
}

// ImporterConfig wires the importer dependencies.
type ImporterConfig struct {
	Store  ArticleStore
	Parser interfaces.MarkdownParser
	Logger interfaces.Logger
}

// Importer converts documents into blog articles and upserts them by
// (slug, language).
type Importer struct {
	store  ArticleStore
	parser interfaces.MarkdownParser
	logger interfaces.Logger
}

// NewImporter builds an Importer. A nil parser falls back to goldmark with
// default extensions.
func NewImporter(cfg ImporterConfig) *Importer {
	parser := cfg.Parser
	if parser == nil {
		parser = NewGoldmarkParser(interfaces.ParseOptions{})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Importer{
		store:  cfg.Store,
		parser: parser,
		logger: logger,
	}
}

// ImportDocuments upserts every document. Per-document failures are
// collected in the result; the first one is also returned.
func (i *Importer) ImportDocuments(ctx context.Context, docs []*interfaces.Document, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if i.store == nil {
		return nil, ErrStoreRequired
	}

	result := &interfaces.ImportResult{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err)
			break
		}
		outcome, id, err := i.importDocument(ctx, doc, opts)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		switch outcome {
		case outcomeCreated:
			result.Created = append(result.Created, id)
		case outcomeUpdated:
			result.Updated = append(result.Updated, id)
		default:
			result.Skipped = append(result.Skipped, id)
		}
	}
	return result, firstError(result.Errors)
}

// SyncDocuments imports docs and, when asked, deletes imported articles whose
// source file lies inside scope but is no longer among docs. Articles sourced
// from files outside scope are left alone.
func (i *Importer) SyncDocuments(ctx context.Context, docs []*interfaces.Document, scope Scope, opts interfaces.SyncOptions) (*interfaces.SyncResult, error) {
	imported, err := i.ImportDocuments(ctx, docs, opts.ImportOptions)
	if imported == nil {
		return nil, err
	}

	result := &interfaces.SyncResult{
		Created: len(imported.Created),
		Updated: len(imported.Updated),
		Skipped: len(imported.Skipped),
		Errors:  append([]error(nil), imported.Errors...),
	}

	if opts.DeleteOrphaned {
		seen := make(map[string]struct{}, len(docs))
		for _, doc := range docs {
			if doc != nil {
				seen[sourceFor(doc)] = struct{}{}
			}
		}
		result.Deleted = i.deleteOrphaned(ctx, scope, seen, opts.DryRun)
	}

	return result, firstError(result.Errors)
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeUpdated
)

func (i *Importer) importDocument(ctx context.Context, doc *interfaces.Document, opts interfaces.ImportOptions) (outcome, string, error) {
	if doc == nil {
		return outcomeSkipped, "", errors.New("markdown importer: nil document")
	}

	article, lang, err := i.buildArticle(doc, opts.Parser)
	if err != nil {
		return outcomeSkipped, "", fmt.Errorf("%s: %w", doc.FilePath, err)
	}

	logger := logging.WithRecordContext(i.logger, string(content.TypeBlogArticle), string(lang), article.Slug)
	existing := i.findBySlug(ctx, lang, article.Slug)

	if existing != nil {
		if sameArticle(existing.Payload, article) {
			logger.Debug("markdown.import.unchanged", "file", doc.FilePath)
			return outcomeSkipped, existing.ID, nil
		}
		if opts.DryRun {
			return outcomeUpdated, existing.ID, nil
		}
		stored := i.store.Update(ctx, content.Record{
			ID:       existing.ID,
			Type:     content.TypeBlogArticle,
			Language: lang,
			Payload:  article,
		})
		if stored.UpdatedAt.IsZero() {
			return outcomeSkipped, "", fmt.Errorf("%s: %w", doc.FilePath, ErrPersistFailed)
		}
		logger.Info("markdown.import.updated", "file", doc.FilePath, "id", stored.ID)
		return outcomeUpdated, stored.ID, nil
	}

	if opts.DryRun {
		return outcomeCreated, article.Slug, nil
	}
	stored := i.store.Save(ctx, content.Record{
		Type:     content.TypeBlogArticle,
		Language: lang,
		Payload:  article,
	})
	if stored.UpdatedAt.IsZero() {
		return outcomeSkipped, "", fmt.Errorf("%s: %w", doc.FilePath, ErrPersistFailed)
	}
	logger.Info("markdown.import.created", "file", doc.FilePath, "id", stored.ID)
	return outcomeCreated, stored.ID, nil
}

func (i *Importer) buildArticle(doc *interfaces.Document, parseOpts *interfaces.ParseOptions) (*content.BlogArticle, content.Language, error) {
	lang, err := content.ParseLanguage(firstNonEmpty(doc.FrontMatter.Language, doc.Language))
	if err != nil {
		return nil, "", ErrLanguageMissing
	}

	meta := doc.FrontMatter
	title := firstNonEmpty(meta.Title, titleFromPath(doc.FilePath))
	if title == "" {
		return nil, "", ErrTitleMissing
	}
	slug, err := content.NormalizeSlug(firstNonEmpty(meta.Slug, title))
	if err != nil {
		return nil, "", err
	}

	html := doc.BodyHTML
	if len(html) == 0 {
		if parseOpts != nil {
			html, err = i.parser.ParseWithOptions(doc.Body, *parseOpts)
		} else {
			html, err = i.parser.Parse(doc.Body)
		}
		if err != nil {
			return nil, "", err
		}
		doc.BodyHTML = html
	}

	article := &content.BlogArticle{
		Title:          title,
		Slug:           slug,
		Excerpt:        firstNonEmpty(meta.Excerpt, firstParagraph(doc.Body)),
		Body:           strings.TrimSpace(string(doc.Body)),
		BodyHTML:       strings.TrimSpace(string(html)),
		CoverImage:     meta.Cover,
		Author:         meta.Author,
		Category:       meta.Category,
		Tags:           append([]string(nil), meta.Tags...),
		Published:      !meta.Draft,
		ReadingMinutes: readingMinutes(doc.Body),
		Source:         sourceFor(doc),
	}
	if !meta.Date.IsZero() {
		published := meta.Date.UTC()
		article.PublishedAt = &published
	}
	if err := article.Validate(); err != nil {
		return nil, "", err
	}
	return article, lang, nil
}

func (i *Importer) findBySlug(ctx context.Context, lang content.Language, slug string) *content.Record {
	for _, record := range i.store.GetAll(ctx, content.TypeBlogArticle, lang) {
		if record.Slug() == slug {
			found := record
			return &found
		}
	}
	return nil
}

func (i *Importer) deleteOrphaned(ctx context.Context, scope Scope, seen map[string]struct{}, dryRun bool) int {
	deleted := 0
	for _, lang := range content.Languages() {
		for _, record := range i.store.GetAll(ctx, content.TypeBlogArticle, lang) {
			article, ok := content.As[content.BlogArticle](record)
			if !ok || !strings.HasPrefix(article.Source, sourcePrefix) {
				continue
			}
			if !scope.Contains(strings.TrimPrefix(article.Source, sourcePrefix)) {
				continue
			}
			if _, ok := seen[article.Source]; ok {
				continue
			}
			if dryRun || i.store.Delete(ctx, content.TypeBlogArticle, lang, record.ID) {
				deleted++
				i.logger.Info("markdown.sync.orphan_deleted", "id", record.ID, "source", article.Source, "dry_run", dryRun)
			}
		}
	}
	return deleted
}

func sourceFor(doc *interfaces.Document) string {
	return sourcePrefix + doc.FilePath
}

func sameArticle(existing content.Payload, next *content.BlogArticle) bool {
	if existing == nil {
		return false
	}
	left, err := json.Marshal(existing)
	if err != nil {
		return false
	}
	right, err := json.Marshal(next)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// titleFromPath turns "posts/my-first-post.pt.md" into "My first post".
func titleFromPath(name string) string {
	stem := path.Base(name)
	for ext := path.Ext(stem); ext != ""; ext = path.Ext(stem) {
		stem = strings.TrimSuffix(stem, ext)
	}
	stem = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(stem))
	if stem == "" {
		return ""
	}
	runes := []rune(stem)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func firstParagraph(body []byte) string {
	for _, block := range strings.Split(strings.ReplaceAll(string(body), "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") || strings.HasPrefix(block, "```") ||
			strings.HasPrefix(block, "!") || strings.HasPrefix(block, "<") {
			continue
		}
		text := strings.Join(strings.Fields(block), " ")
		text = strings.NewReplacer("**", "", "__", "", "`", "").Replace(text)
		if runes := []rune(text); len(runes) > excerptLimit {
			text = strings.TrimSpace(string(runes[:excerptLimit])) + "…"
		}
		return text
	}
	return ""
}

func readingMinutes(body []byte) int {
	words := len(strings.Fields(string(body)))
	if words == 0 {
		return 1
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

