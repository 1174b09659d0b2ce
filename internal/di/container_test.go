package di_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	contentcmd "github.com/goliatone/go-sitecontent/internal/commands/content"
	markdowncmd "github.com/goliatone/go-sitecontent/internal/commands/markdown"
	"github.com/goliatone/go-sitecontent/internal/content"
	"github.com/goliatone/go-sitecontent/internal/di"
	"github.com/goliatone/go-sitecontent/internal/localstorage"
	"github.com/goliatone/go-sitecontent/internal/runtimeconfig"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
	"github.com/goliatone/go-sitecontent/pkg/testsupport"
)

func TestNewContainerDefaultsToMemoryArea(t *testing.T) {
	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithLoggerProvider(newRecordingProvider()))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer container.Close()

	if _, ok := container.StorageArea().(*localstorage.MemoryArea); !ok {
		t.Fatalf("expected memory area, got %T", container.StorageArea())
	}
	if !container.Store().Available() {
		t.Fatalf("expected store to be available")
	}
	if container.ContentCommands() == nil || container.ContentCommands().Save == nil {
		t.Fatalf("expected content handlers to be built")
	}
	if container.MarkdownService() != nil || container.MarkdownCommands() != nil {
		t.Fatalf("expected markdown to stay disabled by default")
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "redis"

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}
}

func TestNewContainerNoneProviderYieldsUnavailableStore(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "none"

	container, err := di.NewContainer(cfg, di.WithLoggerProvider(newRecordingProvider()))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer container.Close()

	if container.Store().Available() {
		t.Fatalf("expected unavailable store")
	}
	err = container.ContentCommands().Clear.Execute(context.Background(), contentcmd.ClearContentCommand{ContentType: content.TypeFAQ})
	if !errors.Is(err, contentcmd.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestNewContainerDisabledYieldsUnavailableStore(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Enabled = false

	rec := newRecordingProvider()
	container, err := di.NewContainer(cfg,
		di.WithLoggerProvider(rec),
		di.WithStorageArea(localstorage.NewMemoryArea()),
	)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer container.Close()

	if container.Store().Available() || container.StorageArea() != nil {
		t.Fatalf("expected disabled module to have no storage area")
	}
	err = container.ContentCommands().Save.Execute(context.Background(), contentcmd.SaveContentCommand{
		ContentType: content.TypeHome,
		Language:    content.LanguagePT,
		Payload:     &content.HomeContent{HeroTitle: "Olá"},
	})
	if !errors.Is(err, contentcmd.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if rec.find("storage.disabled") == nil {
		t.Fatalf("expected storage.disabled log entry, got %#v", rec.entries)
	}
}

func TestNewContainerSQLiteWithCache(t *testing.T) {
	db := testsupport.NewBunDB(t)

	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "sqlite"
	cfg.Storage.DSN = "file::memory:?cache=shared"
	cfg.Storage.Area = t.Name()
	cfg.Storage.Cache.Enabled = true
	cfg.Storage.Cache.TTL = time.Minute

	rec := newRecordingProvider()
	container, err := di.NewContainer(cfg, di.WithBunDB(db), di.WithLoggerProvider(rec))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer container.Close()

	area, ok := container.StorageArea().(*localstorage.BunArea)
	if !ok {
		t.Fatalf("expected bun area, got %T", container.StorageArea())
	}
	if area.Name() != t.Name() {
		t.Fatalf("expected area %q, got %q", t.Name(), area.Name())
	}

	ctx := context.Background()
	var stored content.Record
	err = container.ContentCommands().Save.Execute(ctx, contentcmd.SaveContentCommand{
		ContentType: content.TypeFAQ,
		Language:    content.LanguagePT,
		Payload:     &content.FAQItem{Question: "Como funciona?", Answer: "Assim.", Published: true},
		Result:      &stored,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := container.Store().GetByID(ctx, content.TypeFAQ, content.LanguagePT, stored.ID); got == nil {
		t.Fatalf("expected record persisted through the sqlite area")
	}

	entry := rec.find("storage.configured")
	if entry == nil {
		t.Fatalf("expected storage.configured log entry, got %#v", rec.entries)
	}
	if entry.fields["provider"] != "sqlite" || entry.fields["cache"] != true {
		t.Fatalf("unexpected storage fields: %#v", entry.fields)
	}
}

func TestNewContainerDirProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "dir"
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "area")

	container, err := di.NewContainer(cfg, di.WithLoggerProvider(newRecordingProvider()))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	ctx := context.Background()
	container.Store().Save(ctx, content.Record{
		Type:     content.TypeHome,
		Language: content.LanguagePT,
		Payload:  &content.HomeContent{HeroTitle: "Olá"},
	})
	if err := container.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := di.NewContainer(cfg, di.WithLoggerProvider(newRecordingProvider()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.Store().Get(ctx, content.TypeHome, content.LanguagePT) == nil {
		t.Fatalf("expected home page to persist across containers")
	}
}

func TestNewContainerMarkdownImport(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteTree(t, dir, map[string]string{
		"ola.pt.md": "---\ntitle: Olá Mundo\n---\nPrimeiro post.\n",
	})

	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Enabled = true
	cfg.Markdown.ContentDir = dir

	reg := &recordingRegistry{}
	container, err := di.NewContainer(cfg, di.WithLoggerProvider(newRecordingProvider()), di.WithCommandRegistry(reg))
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	defer container.Close()

	if len(reg.handlers) != 6 {
		t.Fatalf("expected 4 content and 2 markdown handlers registered, got %d", len(reg.handlers))
	}

	var result interfaces.ImportResult
	err = container.MarkdownCommands().Import.Execute(context.Background(), markdowncmd.ImportMarkdownCommand{
		Directory: ".",
		Result:    &result,
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(result.Created) != 1 {
		t.Fatalf("expected one created article, got %+v", result)
	}
	if container.Store().GetBySlug(context.Background(), "ola-mundo", content.LanguagePT) == nil {
		t.Fatalf("expected imported article retrievable by slug")
	}
}

func TestNewContainerMarkdownMissingDir(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Markdown.Enabled = true
	cfg.Markdown.ContentDir = filepath.Join(t.TempDir(), "missing")

	if _, err := di.NewContainer(cfg, di.WithLoggerProvider(newRecordingProvider())); err == nil {
		t.Fatalf("expected error for missing markdown directory")
	}
}

type recordingRegistry struct {
	handlers []any
}

func (r *recordingRegistry) RegisterCommand(handler any) error {
	r.handlers = append(r.handlers, handler)
	return nil
}
