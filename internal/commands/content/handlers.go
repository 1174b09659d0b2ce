package contentcmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-sitecontent/internal/commands"
	"github.com/goliatone/go-sitecontent/internal/content"
	"github.com/goliatone/go-sitecontent/internal/logging"
	"github.com/goliatone/go-sitecontent/internal/validation"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const (
	saveOperation   = "content.save"
	deleteOperation = "content.delete"
	clearOperation  = "content.clear"
	importOperation = "content.import_record"
)

var (
	// ErrStoreUnavailable is returned when the store has no storage area.
	ErrStoreUnavailable = errors.New("content command: store unavailable")
	// ErrRecordNotFound is returned when deleting a record that does not exist.
	ErrRecordNotFound = errors.New("content command: record not found")
	// ErrSlugTaken rejects a published record whose slug is used by another
	// published record in the same language.
	ErrSlugTaken = errors.New("content command: slug already in use")
	// ErrPersistFailed is returned when the store could not write the record.
	ErrPersistFailed = errors.New("content command: record not persisted")
)

const (
	codeStoreUnavailable = "CONTENT_STORE_UNAVAILABLE"
	codeRecordNotFound   = "CONTENT_RECORD_NOT_FOUND"
	codeSlugTaken        = "CONTENT_SLUG_TAKEN"
	codeSlugInvalid      = "CONTENT_SLUG_INVALID"
	codePayloadInvalid   = "CONTENT_PAYLOAD_INVALID"
	codeRecordInvalid    = "CONTENT_RECORD_INVALID"
	codePersistFailed    = "CONTENT_PERSIST_FAILED"
)

var (
	_ command.Commander[SaveContentCommand]   = (*SaveContentHandler)(nil)
	_ command.Commander[DeleteContentCommand] = (*DeleteContentHandler)(nil)
	_ command.Commander[ClearContentCommand]  = (*ClearContentHandler)(nil)
	_ command.Commander[ImportRecordCommand]  = (*ImportRecordHandler)(nil)
)

// ContentStore is the subset of the content store used by the handlers.
type ContentStore interface {
	Available() bool
	Save(ctx context.Context, record content.Record) content.Record
	Update(ctx context.Context, record content.Record) content.Record
	GetAll(ctx context.Context, typ content.Type, lang content.Language) []content.Record
	Delete(ctx context.Context, typ content.Type, lang content.Language, id string) bool
	ClearAll(ctx context.Context, typ content.Type) int
	RecordID(typ content.Type, lang content.Language, id string) string
}

// SaveContentHandler normalizes slugs, validates payloads, rejects slug
// conflicts and persists the record.
type SaveContentHandler struct {
	inner *commands.Handler[SaveContentCommand]
}

// NewSaveContentHandler creates a handler bound to store.
func NewSaveContentHandler(store ContentStore, logger interfaces.Logger, opts ...commands.HandlerOption[SaveContentCommand]) *SaveContentHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg SaveContentCommand) error {
		if store == nil || !store.Available() {
			return commands.CommandError(ErrStoreUnavailable, codeStoreUnavailable, "content store unavailable")
		}

		record := content.Record{
			ID:       msg.ID,
			Type:     msg.ContentType,
			Language: msg.Language,
			Payload:  msg.Payload,
		}
		if err := prepareSlug(record.Payload); err != nil {
			return commands.ValidationError(err, codeSlugInvalid, "content slug invalid")
		}
		if err := record.Payload.Validate(); err != nil {
			return commands.ValidationError(err, codePayloadInvalid, "content payload invalid")
		}
		if err := checkSlugConflict(ctx, store, record); err != nil {
			return err
		}

		var stored content.Record
		if msg.ID != "" {
			stored = store.Update(ctx, record)
		} else {
			stored = store.Save(ctx, record)
		}
		if stored.UpdatedAt.IsZero() {
			return commands.CommandError(ErrPersistFailed, codePersistFailed, "content record not persisted")
		}
		if msg.Result != nil {
			*msg.Result = stored
		}

		logging.WithRecordContext(baseLogger, string(stored.Type), string(stored.Language), stored.ID).
			Info("content.command.save.completed", "slug", stored.Slug())
		return nil
	}

	handlerOpts := []commands.HandlerOption[SaveContentCommand]{
		commands.WithLogger[SaveContentCommand](baseLogger),
		commands.WithOperation[SaveContentCommand](saveOperation),
		commands.WithMessageFields(func(msg SaveContentCommand) map[string]any {
			fields := map[string]any{
				"content_type": msg.ContentType,
				"language":     msg.Language,
			}
			if msg.ID != "" {
				fields["record_id"] = msg.ID
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SaveContentHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[SaveContentCommand].
func (h *SaveContentHandler) Execute(ctx context.Context, msg SaveContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// DeleteContentHandler removes one record.
type DeleteContentHandler struct {
	inner *commands.Handler[DeleteContentCommand]
}

// NewDeleteContentHandler creates a handler bound to store.
func NewDeleteContentHandler(store ContentStore, logger interfaces.Logger, opts ...commands.HandlerOption[DeleteContentCommand]) *DeleteContentHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg DeleteContentCommand) error {
		if store == nil || !store.Available() {
			return commands.CommandError(ErrStoreUnavailable, codeStoreUnavailable, "content store unavailable")
		}
		if !store.Delete(ctx, msg.ContentType, msg.Language, msg.ID) {
			return commands.CommandError(ErrRecordNotFound, codeRecordNotFound, "content record not found")
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[DeleteContentCommand]{
		commands.WithLogger[DeleteContentCommand](baseLogger),
		commands.WithOperation[DeleteContentCommand](deleteOperation),
		commands.WithMessageFields(func(msg DeleteContentCommand) map[string]any {
			return map[string]any{
				"content_type": msg.ContentType,
				"language":     msg.Language,
				"record_id":    msg.ID,
			}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &DeleteContentHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[DeleteContentCommand].
func (h *DeleteContentHandler) Execute(ctx context.Context, msg DeleteContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ClearContentHandler removes records in bulk.
type ClearContentHandler struct {
	inner *commands.Handler[ClearContentCommand]
}

// NewClearContentHandler creates a handler bound to store.
func NewClearContentHandler(store ContentStore, logger interfaces.Logger, opts ...commands.HandlerOption[ClearContentCommand]) *ClearContentHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ClearContentCommand) error {
		if store == nil || !store.Available() {
			return commands.CommandError(ErrStoreUnavailable, codeStoreUnavailable, "content store unavailable")
		}
		removed := store.ClearAll(ctx, msg.ContentType)
		if msg.Removed != nil {
			*msg.Removed = removed
		}
		logging.WithFields(baseLogger, map[string]any{
			"removed_count": removed,
		}).Info("content.command.clear.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ClearContentCommand]{
		commands.WithLogger[ClearContentCommand](baseLogger),
		commands.WithOperation[ClearContentCommand](clearOperation),
		commands.WithTimeout[ClearContentCommand](2 * commands.DefaultCommandTimeout),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ClearContentHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ClearContentCommand].
func (h *ClearContentHandler) Execute(ctx context.Context, msg ClearContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ImportRecordHandler validates a raw envelope against its JSON schema and
// stores it, keeping its id and createdAt.
type ImportRecordHandler struct {
	inner *commands.Handler[ImportRecordCommand]
}

// NewImportRecordHandler creates a handler bound to store.
func NewImportRecordHandler(store ContentStore, logger interfaces.Logger, opts ...commands.HandlerOption[ImportRecordCommand]) *ImportRecordHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ImportRecordCommand) error {
		if store == nil || !store.Available() {
			return commands.CommandError(ErrStoreUnavailable, codeStoreUnavailable, "content store unavailable")
		}
		if err := validation.ValidateEnvelope(msg.Raw, msg.ContentType); err != nil {
			return commands.ValidationError(err, codeRecordInvalid, "content record invalid")
		}
		record, err := content.DecodeRecord(msg.Raw, msg.ContentType)
		if err != nil {
			return commands.ValidationError(err, codeRecordInvalid, "content record invalid")
		}
		if err := record.Payload.Validate(); err != nil {
			return commands.ValidationError(err, codePayloadInvalid, "content payload invalid")
		}
		if err := checkSlugConflict(ctx, store, record); err != nil {
			return err
		}

		stored := store.Save(ctx, record)
		if stored.UpdatedAt.IsZero() {
			return commands.CommandError(ErrPersistFailed, codePersistFailed, "content record not persisted")
		}
		if msg.Result != nil {
			*msg.Result = stored
		}
		logging.WithRecordContext(baseLogger, string(stored.Type), string(stored.Language), stored.ID).
			Info("content.command.import_record.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportRecordCommand]{
		commands.WithLogger[ImportRecordCommand](baseLogger),
		commands.WithOperation[ImportRecordCommand](importOperation),
		commands.WithTimeout[ImportRecordCommand](commands.DefaultCommandTimeout / 2),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportRecordHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ImportRecordCommand].
func (h *ImportRecordHandler) Execute(ctx context.Context, msg ImportRecordCommand) error {
	return h.inner.Execute(ctx, msg)
}

// prepareSlug normalizes the payload slug in place, deriving it from the
// title when empty.
func prepareSlug(payload content.Payload) error {
	sluggable, ok := payload.(content.Sluggable)
	if !ok {
		return nil
	}
	setter, ok := payload.(content.SlugSetter)
	if !ok {
		return nil
	}

	value := sluggable.SlugValue()
	if value == "" {
		if titled, ok := payload.(content.Titled); ok {
			value = titled.TitleValue()
		}
	}
	if value == "" {
		return nil
	}
	normalized, err := content.NormalizeSlug(value)
	if err != nil {
		return err
	}
	setter.SetSlug(normalized)
	return nil
}

func checkSlugConflict(ctx context.Context, store ContentStore, record content.Record) error {
	slug := record.Slug()
	if slug == "" || !record.Type.IsCollection() || !record.Published() {
		return nil
	}
	id := store.RecordID(record.Type, record.Language, record.ID)
	for _, existing := range store.GetAll(ctx, record.Type, record.Language) {
		if (id != "" && existing.ID == id) || !existing.Published() {
			continue
		}
		if existing.Slug() == slug {
			return commands.ValidationError(ErrSlugTaken, codeSlugTaken, "content slug already in use")
		}
	}
	return nil
}
