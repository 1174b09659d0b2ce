package markdown

import (
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
	"github.com/goliatone/go-sitecontent/pkg/testsupport"
)

func TestParseFrontMatter(t *testing.T) {
	data := readFixture(t, "testdata/guia.pt.md")

	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}

	if fm.Title != "Guia de 10 Tarefas" {
		t.Fatalf("FrontMatter Title mismatch, got %q", fm.Title)
	}
	if fm.Excerpt != "Um guia rápido para organizar a semana." {
		t.Fatalf("expected summary to populate Excerpt, got %q", fm.Excerpt)
	}
	if fm.Cover != "/img/guia.png" {
		t.Fatalf("expected coverImage to populate Cover, got %q", fm.Cover)
	}
	if len(fm.Tags) != 2 || fm.Tags[0] != "guia" {
		t.Fatalf("FrontMatter Tags mismatch: %#v", fm.Tags)
	}
	if !fm.Date.Equal(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("FrontMatter Date mismatch: %v", fm.Date)
	}
	if fm.Custom["featured"] != true {
		t.Fatalf("FrontMatter Custom flag missing: %#v", fm.Custom)
	}
	if fm.Draft {
		t.Fatalf("expected draft to default to false")
	}
	if !strings.Contains(string(body), "# Guia de 10 Tarefas") {
		t.Fatalf("Markdown body not returned correctly: %q", string(body))
	}
}

func TestParseFrontMatterWithoutBlock(t *testing.T) {
	fm, body, err := ParseFrontMatter([]byte("# Only body\n"))
	if err != nil {
		t.Fatalf("ParseFrontMatter: %v", err)
	}
	if fm.Title != "" {
		t.Fatalf("expected empty title, got %q", fm.Title)
	}
	if string(body) != "# Only body\n" {
		t.Fatalf("expected body untouched, got %q", string(body))
	}
}

func TestBuildDocumentPrefersFrontMatterLanguage(t *testing.T) {
	source := []byte("---\ntitle: Hello\nlang: EN\n---\nbody\n")
	modified := time.Now().UTC()

	doc, err := BuildDocument("posts/hello.pt.md", "pt", source, modified)
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	if doc.Language != "en" {
		t.Fatalf("expected front matter language to win, got %q", doc.Language)
	}
	if doc.FilePath != "posts/hello.pt.md" {
		t.Fatalf("expected FilePath to be set, got %q", doc.FilePath)
	}
	if !doc.LastModified.Equal(modified) {
		t.Fatalf("expected LastModified to equal the provided timestamp")
	}
}

func TestGoldmarkParser_Parse(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})

	html, err := parser.Parse([]byte("# Heading\n\nHello **world**\n\n- [x] done"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	got := string(html)
	if !strings.Contains(got, "Heading</h1>") {
		t.Fatalf("expected rendered HTML to include a heading, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected rendered HTML to include <strong>, got %q", got)
	}
	if !strings.Contains(got, `type="checkbox"`) {
		t.Fatalf("expected default extensions to render task lists, got %q", got)
	}
}

func TestGoldmarkParser_ParseWithOptions(t *testing.T) {
	parser := NewGoldmarkParser(interfaces.ParseOptions{})
	source := []byte("line one\nline two\n\n<div>raw</div>")

	html, err := parser.ParseWithOptions(source, interfaces.ParseOptions{HardWraps: true})
	if err != nil {
		t.Fatalf("ParseWithOptions: %v", err)
	}
	if !strings.Contains(string(html), "<br") {
		t.Fatalf("expected hard wraps to emit <br>, got %q", string(html))
	}
	if !strings.Contains(string(html), "<div>raw</div>") {
		t.Fatalf("expected raw HTML outside safe mode, got %q", string(html))
	}

	safe, err := parser.ParseWithOptions(source, interfaces.ParseOptions{SafeMode: true})
	if err != nil {
		t.Fatalf("ParseWithOptions safe: %v", err)
	}
	if strings.Contains(string(safe), "<div>raw</div>") {
		t.Fatalf("expected safe mode to drop raw HTML, got %q", string(safe))
	}
}

func TestCollectExtensionsSkipsUnknownAndDuplicates(t *testing.T) {
	exts := collectExtensions([]string{"table", "TABLE", "nope", " footnote "})
	if len(exts) != 2 {
		t.Fatalf("expected 2 extensions, got %d", len(exts))
	}
}

func readFixture(t *testing.T, path string) []byte {
	t.Helper()
	data, err := testsupport.LoadFixture(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}
