package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and the Markdown body from source.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return meta.toFrontMatter(), body, nil
}

// BuildDocument assembles a Document from a file path, its detected language,
// raw content and modification time. BodyHTML is left empty so callers can
// render lazily.
func BuildDocument(path, language string, source []byte, modified time.Time) (*interfaces.Document, error) {
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if lang := strings.TrimSpace(meta.Language); lang != "" {
		language = lang
	}

	return &interfaces.Document{
		FilePath:     path,
		Language:     language,
		FrontMatter:  meta,
		Body:         body,
		LastModified: modified,
	}, nil
}

type frontMatterEnvelope struct {
	Title      string         `yaml:"title"`
	Slug       string         `yaml:"slug"`
	Excerpt    string         `yaml:"excerpt"`
	Summary    string         `yaml:"summary"`
	Author     string         `yaml:"author"`
	Category   string         `yaml:"category"`
	Cover      string         `yaml:"cover"`
	CoverImage string         `yaml:"coverImage"`
	Language   string         `yaml:"language"`
	Lang       string         `yaml:"lang"`
	Tags       []string       `yaml:"tags"`
	Date       time.Time      `yaml:"date"`
	Draft      bool           `yaml:"draft"`
	Custom     map[string]any `yaml:",inline"`
}

func (env frontMatterEnvelope) toFrontMatter() interfaces.FrontMatter {
	custom := make(map[string]any, len(env.Custom))
	for key, value := range env.Custom {
		custom[key] = value
	}

	return interfaces.FrontMatter{
		Title:    strings.TrimSpace(env.Title),
		Slug:     strings.TrimSpace(env.Slug),
		Excerpt:  firstNonEmpty(env.Excerpt, env.Summary),
		Author:   strings.TrimSpace(env.Author),
		Category: strings.TrimSpace(env.Category),
		Cover:    firstNonEmpty(env.Cover, env.CoverImage),
		Language: strings.ToLower(firstNonEmpty(env.Language, env.Lang)),
		Tags:     append([]string(nil), env.Tags...),
		Date:     env.Date,
		Draft:    env.Draft,
		Custom:   custom,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
