// Package store persists site content records in a key/value storage area
// and notifies subscribers when they change.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-sitecontent/internal/content"
	"github.com/goliatone/go-sitecontent/internal/identity"
	"github.com/goliatone/go-sitecontent/internal/localstorage"
	"github.com/goliatone/go-sitecontent/internal/logging"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// Store reads and writes content records. Operations never return errors:
// failures are logged and the documented safe default is returned. A store
// built without an area is unavailable and every operation is a no-op.
type Store struct {
	area          interfaces.StorageArea
	prefix        string
	logger        interfaces.Logger
	now           func() time.Time
	newID         func(time.Time) string
	origin        string
	clearedWindow time.Duration

	// serializes read-modify-write sequences issued through this store
	writeMu sync.Mutex
	subs    *subscriptions
	closed  atomic.Bool

	pumpMu     sync.Mutex
	pumpCancel context.CancelFunc
	pumpDone   chan struct{}
}

// New constructs a store over area. A nil area yields an unavailable store.
func New(area interfaces.StorageArea, opts ...Option) *Store {
	s := &Store{
		area:          area,
		prefix:        DefaultPrefix,
		logger:        logging.StoreLogger(nil),
		now:           time.Now,
		newID:         identity.NewRecordID,
		clearedWindow: DefaultClearedWindow,
		subs:          newSubscriptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.origin == "" {
		s.origin = identity.NewOrigin()
	}
	return s
}

// Available reports whether the store is backed by a storage area.
func (s *Store) Available() bool {
	return s != nil && s.area != nil && !s.closed.Load()
}

// Origin identifies this store in storage events.
func (s *Store) Origin() string {
	return s.origin
}

// Prefix returns the key prefix.
func (s *Store) Prefix() string {
	return s.prefix
}

// Close drops every subscription and stops watching the area. The area
// itself is left open.
func (s *Store) Close() {
	if s == nil || !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.stopStoragePump()
	s.subs.reset()
}

// Save stores record, assigning an id when missing. Singletons keep the id
// and createdAt of the record they overwrite. The stored record is returned;
// on failure the input is returned unchanged.
func (s *Store) Save(ctx context.Context, record content.Record) content.Record {
	if !s.Available() {
		return record
	}
	if !s.checkRecord(record, "store.save") {
		return record
	}

	s.writeMu.Lock()
	stored, key, ok := s.save(ctx, record)
	s.writeMu.Unlock()
	if !ok {
		return record
	}

	s.emit(ActionSave, stored.Type, stored.Language, stored.ID, key)
	return stored
}

// Update overwrites an existing record refreshing updatedAt. When nothing is
// stored under the record's key it falls back to Save and reports a save.
func (s *Store) Update(ctx context.Context, record content.Record) content.Record {
	if !s.Available() {
		return record
	}
	if !s.checkRecord(record, "store.update") {
		return record
	}
	if record.Type.IsCollection() && strings.TrimSpace(record.ID) == "" {
		s.logger.Debug("store.update.missing_id", "content_type", record.Type, "language", record.Language)
		return s.Save(ctx, record)
	}

	s.writeMu.Lock()
	key := s.recordKey(record.Type, record.Language, record.ID)
	existing, found := s.read(ctx, key, record.Type)
	if !found {
		s.writeMu.Unlock()
		return s.Save(ctx, record)
	}

	stored := record
	stored.ID = existing.ID
	now := s.now().UTC()
	if stored.ID == "" {
		stored.ID = s.bareID(record.Type, record.Language, record.ID)
	}
	if stored.ID == "" {
		stored.ID = s.newID(now)
	}
	stored.CreatedAt = existing.CreatedAt
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if !s.write(ctx, key, stored, "store.update") {
		s.writeMu.Unlock()
		return record
	}
	s.writeMu.Unlock()

	s.emit(ActionUpdate, stored.Type, stored.Language, stored.ID, key)
	return stored
}

// Get returns the singleton record for (typ, lang), or nil.
func (s *Store) Get(ctx context.Context, typ content.Type, lang content.Language) *content.Record {
	if !s.Available() || !typ.Valid() {
		return nil
	}
	record, ok := s.read(ctx, s.singletonKey(typ, lang), typ)
	if !ok {
		return nil
	}
	return &record
}

// GetByID returns the record stored under the exact key for (typ, lang, id).
// id may be the bare id or the full key.
func (s *Store) GetByID(ctx context.Context, typ content.Type, lang content.Language, id string) *content.Record {
	if !s.Available() || !typ.Valid() {
		return nil
	}
	if typ.IsCollection() && s.bareID(typ, lang, id) == "" {
		return nil
	}
	record, ok := s.read(ctx, s.recordKey(typ, lang, id), typ)
	if !ok {
		return nil
	}
	return &record
}

// GetAll returns every record of typ in lang, in storage iteration order.
// Entries that cannot be decoded are skipped.
func (s *Store) GetAll(ctx context.Context, typ content.Type, lang content.Language) []content.Record {
	records := []content.Record{}
	if !s.Available() || !typ.Valid() {
		return records
	}
	if typ.IsSingleton() {
		if record := s.Get(ctx, typ, lang); record != nil {
			records = append(records, *record)
		}
		return records
	}

	keys, err := s.area.Keys(ctx)
	if err != nil {
		s.logger.Warn("store.get_all", "content_type", typ, "language", lang, "error", err)
		return records
	}
	prefix := s.collectionPrefix(typ, lang)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if record, ok := s.read(ctx, key, typ); ok {
			records = append(records, record)
		}
	}
	return records
}

// GetBySlug returns the first published blog article in lang with slug.
func (s *Store) GetBySlug(ctx context.Context, slug string, lang content.Language) *content.Record {
	return s.FindBySlug(ctx, content.TypeBlogArticle, slug, lang)
}

// FindBySlug returns the first published record of typ in lang with slug.
func (s *Store) FindBySlug(ctx context.Context, typ content.Type, slug string, lang content.Language) *content.Record {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil
	}
	for _, record := range s.GetAll(ctx, typ, lang) {
		if record.Published() && record.Slug() == slug {
			return &record
		}
	}
	return nil
}

// Delete removes the record stored under the exact key for (typ, lang, id)
// and reports whether something was removed. A delete event is emitted either
// way.
func (s *Store) Delete(ctx context.Context, typ content.Type, lang content.Language, id string) bool {
	if !s.Available() || !typ.Valid() {
		return false
	}

	bare := s.bareID(typ, lang, id)
	key := s.recordKey(typ, lang, id)
	removed := false
	if typ.IsSingleton() || bare != "" {
		s.writeMu.Lock()
		var err error
		removed, err = s.area.RemoveItem(s.writeContext(ctx), key)
		s.writeMu.Unlock()
		if err != nil {
			logging.WithRecordContext(s.logger, string(typ), string(lang), bare).
				Error("store.delete", "key", key, "origin", s.origin, "error", err)
			removed = false
		}
	}

	s.emit(ActionDelete, typ, lang, bare, key)
	return removed
}

// ClearAll removes every key owned by the store, or only the keys of typ when
// it is not empty, records the time of the clear and returns the number of
// removed keys.
func (s *Store) ClearAll(ctx context.Context, typ content.Type) int {
	if !s.Available() {
		return 0
	}

	prefix := s.prefix
	if typ != "" {
		prefix = s.typePrefix(typ)
	}
	markerKey := s.clearedAtKey()

	s.writeMu.Lock()
	keys, err := s.area.Keys(ctx)
	if err != nil {
		s.writeMu.Unlock()
		s.logger.Error("store.clear", "content_type", typ, "error", err)
		return 0
	}

	wctx := s.writeContext(ctx)
	removed := 0
	for _, key := range keys {
		if key == markerKey || !strings.HasPrefix(key, prefix) {
			continue
		}
		ok, err := s.area.RemoveItem(wctx, key)
		if err != nil {
			s.logger.Warn("store.clear.remove", "key", key, "error", err)
			continue
		}
		if ok {
			removed++
		}
	}

	clearedAt := s.now().UTC()
	if err := s.area.SetItem(wctx, markerKey, clearedAt.Format(time.RFC3339Nano)); err != nil {
		s.logger.Warn("store.clear.marker", "key", markerKey, "error", err)
	}
	s.writeMu.Unlock()

	s.logger.Info("store.clear", "content_type", typ, "removed", removed)
	s.emit(ActionClear, typ, "", "", prefix)
	return removed
}

// ClearedAt returns the time of the last ClearAll.
func (s *Store) ClearedAt(ctx context.Context) (time.Time, bool) {
	if !s.Available() {
		return time.Time{}, false
	}
	raw, ok, err := s.area.GetItem(ctx, s.clearedAtKey())
	if err != nil || !ok {
		return time.Time{}, false
	}
	clearedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.logger.Warn("store.cleared_at", "value", raw, "error", err)
		return time.Time{}, false
	}
	return clearedAt, true
}

// WasRecentlyCleared reports whether ClearAll ran within the configured
// window.
func (s *Store) WasRecentlyCleared(ctx context.Context) bool {
	return s.WasClearedWithin(ctx, s.clearedWindow)
}

// WasClearedWithin reports whether ClearAll ran within window.
func (s *Store) WasClearedWithin(ctx context.Context, window time.Duration) bool {
	clearedAt, ok := s.ClearedAt(ctx)
	if !ok {
		return false
	}
	return s.now().Sub(clearedAt) <= window
}

func (s *Store) save(ctx context.Context, record content.Record) (content.Record, string, bool) {
	now := s.now().UTC()
	stored := record

	var key string
	if record.Type.IsSingleton() {
		key = s.singletonKey(record.Type, record.Language)
		if existing, ok := s.read(ctx, key, record.Type); ok {
			if stored.ID == "" {
				stored.ID = existing.ID
			}
			stored.CreatedAt = existing.CreatedAt
		}
	} else {
		stored.ID = s.bareID(record.Type, record.Language, record.ID)
		if stored.ID == "" {
			stored.ID = s.newID(now)
		}
		key = s.recordKey(record.Type, record.Language, stored.ID)
		if existing, ok := s.read(ctx, key, record.Type); ok {
			stored.CreatedAt = existing.CreatedAt
		}
	}

	if stored.ID == "" {
		stored.ID = s.newID(now)
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	if !s.write(ctx, key, stored, "store.save") {
		return record, key, false
	}
	return stored, key, true
}

func (s *Store) write(ctx context.Context, key string, record content.Record, op string) bool {
	logger := logging.WithRecordContext(s.logger, string(record.Type), string(record.Language), record.ID)
	raw, err := json.Marshal(record)
	if err != nil {
		logger.Error(op+".encode", "key", key, "error", err)
		return false
	}
	if err := s.area.SetItem(s.writeContext(ctx), key, string(raw)); err != nil {
		logger.Error(op, "key", key, "origin", s.origin, "error", err)
		return false
	}
	return true
}

func (s *Store) read(ctx context.Context, key string, typ content.Type) (content.Record, bool) {
	raw, ok, err := s.area.GetItem(ctx, key)
	if err != nil {
		s.logger.Warn("store.read", "key", key, "error", err)
		return content.Record{}, false
	}
	if !ok {
		return content.Record{}, false
	}
	record, err := content.DecodeRecord([]byte(raw), typ)
	if err != nil {
		s.logger.Warn("store.read.decode", "key", key, "error", err)
		return content.Record{}, false
	}
	return record, true
}

func (s *Store) checkRecord(record content.Record, op string) bool {
	if !record.Type.Valid() {
		s.logger.Warn(op+".invalid", "content_type", record.Type, "error", content.ErrUnknownType)
		return false
	}
	if !record.Language.Valid() {
		s.logger.Warn(op+".invalid", "language", record.Language, "error", content.ErrUnknownLanguage)
		return false
	}
	if !content.HasPayload(record.Payload) {
		s.logger.Warn(op+".invalid", "content_type", record.Type, "error", content.ErrPayloadMissing)
		return false
	}
	return true
}

func (s *Store) writeContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return localstorage.WithOrigin(ctx, s.origin)
}
