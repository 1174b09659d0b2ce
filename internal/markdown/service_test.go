package markdown

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-sitecontent/internal/content"
	"github.com/goliatone/go-sitecontent/internal/localstorage"
	"github.com/goliatone/go-sitecontent/internal/store"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

func newTestService(t *testing.T, files fstest.MapFS) (*Service, *store.Store) {
	t.Helper()
	st := store.New(localstorage.NewMemoryArea())
	t.Cleanup(st.Close)

	svc, err := NewService(Config{
		DefaultLanguage: "pt",
		Languages:       []string{"pt", "en"},
		Recursive:       true,
		FS:              files,
	}, st, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, st
}

func articleFiles() fstest.MapFS {
	modified := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return fstest.MapFS{
		"posts/guia.pt.md": {
			Data:    []byte("---\ntitle: Guia de 10 Tarefas\nauthor: Ana\ntags: [guia]\ndate: 2024-05-01T09:30:00Z\n---\n\nOrganizar a semana começa com uma **lista curta**.\n"),
			ModTime: modified,
		},
		"posts/hello.en.md": {
			Data:    []byte("---\ntitle: Hello World\nslug: Hello There\nexcerpt: Greetings\ndraft: true\n---\n\n# Hello\n\nbody\n"),
			ModTime: modified,
		},
	}
}

func TestServiceImportDirectoryCreatesArticles(t *testing.T) {
	svc, st := newTestService(t, articleFiles())
	ctx := context.Background()

	result, err := svc.ImportDirectory(ctx, "posts", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}
	if len(result.Created) != 2 || len(result.Updated) != 0 || len(result.Skipped) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	record := st.FindBySlug(ctx, content.TypeBlogArticle, "guia-de-10-tarefas", content.LanguagePT)
	if record == nil {
		t.Fatalf("expected published article under derived slug")
	}
	article, ok := content.As[content.BlogArticle](*record)
	if !ok {
		t.Fatalf("expected blog article payload, got %T", record.Payload)
	}
	if article.Author != "Ana" || len(article.Tags) != 1 {
		t.Fatalf("front matter not carried over: %+v", article)
	}
	if article.Excerpt != "Organizar a semana começa com uma lista curta." {
		t.Fatalf("expected excerpt from first paragraph, got %q", article.Excerpt)
	}
	if !strings.Contains(article.BodyHTML, "<strong>lista curta</strong>") {
		t.Fatalf("expected rendered body, got %q", article.BodyHTML)
	}
	if article.ReadingMinutes != 1 {
		t.Fatalf("expected 1 minute reading time, got %d", article.ReadingMinutes)
	}
	if article.PublishedAt == nil || article.PublishedAt.Year() != 2024 {
		t.Fatalf("expected publishedAt from front matter, got %v", article.PublishedAt)
	}
	if article.Source != "markdown:posts/guia.pt.md" {
		t.Fatalf("unexpected source %q", article.Source)
	}

	drafts := st.GetAll(ctx, content.TypeBlogArticle, content.LanguageEN)
	if len(drafts) != 1 {
		t.Fatalf("expected english draft stored, got %d", len(drafts))
	}
	if drafts[0].Slug() != "hello-there" || drafts[0].Published() {
		t.Fatalf("expected unpublished hello-there, got slug=%q published=%v", drafts[0].Slug(), drafts[0].Published())
	}
}

func TestServiceReimportKeepsID(t *testing.T) {
	files := articleFiles()
	svc, st := newTestService(t, files)
	ctx := context.Background()

	first, err := svc.ImportDirectory(ctx, "posts", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	original := st.GetAll(ctx, content.TypeBlogArticle, content.LanguagePT)[0]

	second, err := svc.ImportDirectory(ctx, "posts", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(second.Skipped) != 2 || len(second.Created) != 0 {
		t.Fatalf("expected unchanged documents to be skipped, got %+v", second)
	}

	files["posts/guia.pt.md"] = &fstest.MapFile{
		Data:    []byte("---\ntitle: Guia de 10 Tarefas\n---\n\nTexto revisado.\n"),
		ModTime: time.Now(),
	}
	third, err := svc.ImportDirectory(ctx, "posts", interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("third import: %v", err)
	}
	if len(third.Updated) != 1 || third.Updated[0] != original.ID {
		t.Fatalf("expected update of %s, got %+v", original.ID, third)
	}

	all := st.GetAll(ctx, content.TypeBlogArticle, content.LanguagePT)
	if len(all) != 1 {
		t.Fatalf("expected upsert, got %d articles", len(all))
	}
	if all[0].ID != original.ID || !all[0].CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("expected id and createdAt preserved: %+v vs %+v", all[0], original)
	}
	if len(first.Created) != 2 {
		t.Fatalf("expected first import to create 2, got %+v", first)
	}
}

func TestServiceImportDryRunWritesNothing(t *testing.T) {
	svc, st := newTestService(t, articleFiles())
	ctx := context.Background()

	result, err := svc.ImportDirectory(ctx, "posts", interfaces.ImportOptions{DryRun: true})
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}
	if len(result.Created) != 2 {
		t.Fatalf("expected 2 planned creates, got %+v", result)
	}
	if got := st.GetAll(ctx, content.TypeBlogArticle, content.LanguagePT); len(got) != 0 {
		t.Fatalf("dry run stored %d articles", len(got))
	}
}

func TestServiceImportCollectsDocumentErrors(t *testing.T) {
	files := articleFiles()
	files["posts/broken.md"] = &fstest.MapFile{Data: []byte("---\nlanguage: fr\n---\nbody\n")}
	svc, st := newTestService(t, files)
	ctx := context.Background()

	result, err := svc.ImportDirectory(ctx, "posts", interfaces.ImportOptions{})
	if !errors.Is(err, ErrLanguageMissing) {
		t.Fatalf("expected ErrLanguageMissing, got %v", err)
	}
	if len(result.Errors) != 1 || len(result.Created) != 2 {
		t.Fatalf("expected other documents to import, got %+v", result)
	}
	if got := st.GetAll(ctx, content.TypeBlogArticle, content.LanguagePT); len(got) != 1 {
		t.Fatalf("expected 1 portuguese article, got %d", len(got))
	}
}

func TestServiceSyncDeletesOrphans(t *testing.T) {
	files := articleFiles()
	svc, st := newTestService(t, files)
	ctx := context.Background()

	manual := st.Save(ctx, content.Record{
		Type:     content.TypeBlogArticle,
		Language: content.LanguageEN,
		Payload:  &content.BlogArticle{Title: "Manual", Slug: "manual", Published: true},
	})

	if _, err := svc.Sync(ctx, "posts", interfaces.SyncOptions{}); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	delete(files, "posts/hello.en.md")
	result, err := svc.Sync(ctx, "posts", interfaces.SyncOptions{DeleteOrphaned: true})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Deleted != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected sync result: %+v", result)
	}

	remaining := st.GetAll(ctx, content.TypeBlogArticle, content.LanguageEN)
	if len(remaining) != 1 || remaining[0].ID != manual.ID {
		t.Fatalf("expected only the manually authored article to remain, got %+v", remaining)
	}
}

func TestServiceSyncKeepsArticlesOutsideDirectory(t *testing.T) {
	modified := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	files := fstest.MapFS{
		"blog/a.pt.md":           {Data: []byte("---\ntitle: Artigo A\n---\ntexto\n"), ModTime: modified},
		"blog/archive/old.pt.md": {Data: []byte("---\ntitle: Arquivo\n---\ntexto\n"), ModTime: modified},
		"guides/b.pt.md":         {Data: []byte("---\ntitle: Guia B\n---\ntexto\n"), ModTime: modified},
	}
	svc, st := newTestService(t, files)
	ctx := context.Background()

	if _, err := svc.ImportDirectory(ctx, ".", interfaces.ImportOptions{}); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := len(st.GetAll(ctx, content.TypeBlogArticle, content.LanguagePT)); got != 3 {
		t.Fatalf("expected 3 imported articles, got %d", got)
	}

	flat := false
	opts := interfaces.SyncOptions{
		ImportOptions:  interfaces.ImportOptions{LoadOptions: interfaces.LoadOptions{Recursive: &flat}},
		DeleteOrphaned: true,
	}
	result, err := svc.Sync(ctx, "blog", opts)
	if err != nil {
		t.Fatalf("sync blog: %v", err)
	}
	if result.Deleted != 0 {
		t.Fatalf("expected no deletions while every file exists, got %+v", result)
	}

	delete(files, "blog/a.pt.md")
	result, err = svc.Sync(ctx, "blog", opts)
	if err != nil {
		t.Fatalf("sync blog after removal: %v", err)
	}
	if result.Deleted != 1 {
		t.Fatalf("expected only the removed file's article deleted, got %+v", result)
	}

	remaining := st.GetAll(ctx, content.TypeBlogArticle, content.LanguagePT)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 articles left, got %d", len(remaining))
	}
	for _, slug := range []string{"arquivo", "guia-b"} {
		if st.FindBySlug(ctx, content.TypeBlogArticle, slug, content.LanguagePT) == nil {
			t.Fatalf("expected article %q to survive", slug)
		}
	}
}

func TestServiceRenderMergesDefaults(t *testing.T) {
	svc, _ := newTestService(t, articleFiles())

	html, err := svc.Render(context.Background(), []byte("a\nb"), interfaces.ParseOptions{HardWraps: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(html), "<br") {
		t.Fatalf("expected hard wrap, got %q", string(html))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Render(ctx, []byte("a"), interfaces.ParseOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestServiceWatchDirectorySyncsOnChange(t *testing.T) {
	dir := t.TempDir()
	st := store.New(localstorage.NewMemoryArea())
	t.Cleanup(st.Close)

	svc, err := NewService(Config{BasePath: dir, DefaultLanguage: "pt", Languages: []string{"pt", "en"}}, st, nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncs := make(chan *interfaces.SyncResult, 8)
	done := make(chan error, 1)
	go func() {
		done <- svc.WatchDirectory(ctx, ".", interfaces.SyncOptions{}, 20*time.Millisecond, func(res *interfaces.SyncResult, err error) {
			if err == nil {
				syncs <- res
			}
		})
	}()

	select {
	case <-syncs:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected initial sync")
	}

	if err := os.WriteFile(filepath.Join(dir, "novo.md"), []byte("---\ntitle: Novo\n---\ntexto\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case res := <-syncs:
			if res.Created == 1 {
				if st.FindBySlug(context.Background(), content.TypeBlogArticle, "novo", content.LanguagePT) == nil {
					t.Fatalf("expected article stored after watch sync")
				}
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("WatchDirectory: %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("expected a sync after the file was written")
		}
	}
}
