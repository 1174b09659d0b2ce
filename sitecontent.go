package sitecontent

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	contentcmd "github.com/goliatone/go-sitecontent/internal/commands/content"
	markdowncmd "github.com/goliatone/go-sitecontent/internal/commands/markdown"
	"github.com/goliatone/go-sitecontent/internal/di"
	"github.com/goliatone/go-sitecontent/internal/store"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// ErrMarkdownDisabled is returned by markdown helpers when Markdown.Enabled
// is false.
var ErrMarkdownDisabled = errors.New("sitecontent: markdown ingestion is disabled")

// Store exports the content store.
type Store = store.Store

// Module represents the top level site content runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using cfg and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Store returns the content store for direct reads and subscriptions.
func (m *Module) Store() *Store {
	return m.container.Store()
}

// Close releases the storage area and stops subscriptions.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

// Save validates record, normalizes its slug and persists it. A non-empty
// ID updates the existing record.
func (m *Module) Save(ctx context.Context, record Record) (Record, error) {
	var stored Record
	err := m.container.ContentCommands().Save.Execute(ctx, contentcmd.SaveContentCommand{
		ContentType: record.Type,
		Language:    record.Language,
		ID:          record.ID,
		Payload:     record.Payload,
		Result:      &stored,
	})
	return stored, err
}

// Delete removes one record. Singletons ignore id.
func (m *Module) Delete(ctx context.Context, typ Type, lang Language, id string) error {
	return m.container.ContentCommands().Delete.Execute(ctx, contentcmd.DeleteContentCommand{
		ContentType: typ,
		Language:    lang,
		ID:          id,
	})
}

// Clear removes every record of typ in every language and reports how many
// were removed.
func (m *Module) Clear(ctx context.Context, typ Type) (int, error) {
	removed := 0
	err := m.container.ContentCommands().Clear.Execute(ctx, contentcmd.ClearContentCommand{
		ContentType: typ,
		Removed:     &removed,
	})
	return removed, err
}

// Import validates a raw record envelope against its JSON schema and saves
// it. fallback types envelopes that carry no type.
func (m *Module) Import(ctx context.Context, raw json.RawMessage, fallback Type) (Record, error) {
	var stored Record
	err := m.container.ContentCommands().Import.Execute(ctx, contentcmd.ImportRecordCommand{
		Raw:         raw,
		ContentType: fallback,
		Result:      &stored,
	})
	return stored, err
}

// Export returns every stored record of typ in lang.
func (m *Module) Export(ctx context.Context, typ Type, lang Language) []Record {
	if typ.IsSingleton() {
		if record := m.Store().Get(ctx, typ, lang); record != nil {
			return []Record{*record}
		}
		return nil
	}
	return m.Store().GetAll(ctx, typ, lang)
}

// ImportMarkdown imports dir (relative to Markdown.ContentDir) as blog
// articles.
func (m *Module) ImportMarkdown(ctx context.Context, dir string, dryRun bool) (*ImportResult, error) {
	handlers := m.container.MarkdownCommands()
	if handlers == nil {
		return nil, ErrMarkdownDisabled
	}
	result := &ImportResult{}
	err := handlers.Import.Execute(ctx, markdowncmd.ImportMarkdownCommand{
		Directory: dir,
		DryRun:    dryRun,
		Result:    result,
	})
	return result, err
}

// SyncMarkdown imports dir and, with deleteOrphaned, removes articles whose
// file is gone.
func (m *Module) SyncMarkdown(ctx context.Context, dir string, dryRun, deleteOrphaned bool) (*SyncResult, error) {
	handlers := m.container.MarkdownCommands()
	if handlers == nil {
		return nil, ErrMarkdownDisabled
	}
	result := &SyncResult{}
	err := handlers.Sync.Execute(ctx, markdowncmd.SyncMarkdownCommand{
		Directory:      dir,
		DryRun:         dryRun,
		DeleteOrphaned: deleteOrphaned,
		Result:         result,
	})
	return result, err
}

// WatchMarkdown syncs dir whenever its Markdown files change, until ctx is
// cancelled.
func (m *Module) WatchMarkdown(ctx context.Context, dir string, deleteOrphaned bool, debounce time.Duration, onSync func(*SyncResult, error)) error {
	svc := m.container.MarkdownService()
	if svc == nil {
		return ErrMarkdownDisabled
	}
	return svc.WatchDirectory(ctx, dir, interfaces.SyncOptions{DeleteOrphaned: deleteOrphaned}, debounce, onSync)
}

// Subscribe registers handler for changes made through this module's store.
func (m *Module) Subscribe(handler func(ChangeEvent)) func() {
	return m.Store().Subscribe(handler)
}

// Watch calls fn after any change, local or from another writer sharing the
// storage area.
func (m *Module) Watch(fn func()) func() {
	return m.Store().Watch(fn)
}
