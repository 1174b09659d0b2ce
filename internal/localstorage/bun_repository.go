package localstorage

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-sitecontent/internal/identity"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const defaultAreaName = "default"

// StorageItem is one key/value row of a SQL backed storage area. Several
// named areas can share the table.
type StorageItem struct {
	bun.BaseModel `bun:"table:local_storage_items,alias:lsi"`

	ID        uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Area      string    `bun:"area,notnull" json:"area"`
	Key       string    `bun:"key,notnull" json:"key"`
	Value     string    `bun:"value,notnull" json:"value"`
	Seq       int64     `bun:"seq,notnull" json:"seq"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewStorageItemRepository creates the generic repository for storage rows.
func NewStorageItemRepository(db *bun.DB) repository.Repository[*StorageItem] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*StorageItem]{
		NewRecord: func() *StorageItem { return &StorageItem{} },
		GetID: func(item *StorageItem) uuid.UUID {
			return item.ID
		},
		SetID: func(item *StorageItem, id uuid.UUID) {
			item.ID = id
		},
		GetIdentifier: func() string {
			return "key"
		},
		GetIdentifierValue: func(item *StorageItem) string {
			return item.Key
		},
	})
}

// EnsureSchema creates the storage table when missing.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*StorageItem)(nil)).IfNotExists().Exec(ctx)
	return err
}

// BunArea persists a storage area in a SQL database through Bun. Watch only
// reports writes made through the same *BunArea value, so stores meant to
// notify each other must share one area. A second BunArea over the same
// table reads the same rows but observes none of the first one's writes.
type BunArea struct {
	name        string
	repo        repository.Repository[*StorageItem]
	now         func() time.Time
	broadcaster *eventBroadcaster
}

var (
	_ interfaces.StorageArea    = (*BunArea)(nil)
	_ interfaces.StorageWatcher = (*BunArea)(nil)
)

// BunOption configures a BunArea.
type BunOption func(*bunAreaOptions)

type bunAreaOptions struct {
	name          string
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	now           func() time.Time
}

// WithAreaName scopes the area to a name so several areas can share a table.
func WithAreaName(name string) BunOption {
	return func(o *bunAreaOptions) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			o.name = trimmed
		}
	}
}

// WithCache wraps the repository with go-repository-cache.
func WithCache(service cache.CacheService, serializer cache.KeySerializer) BunOption {
	return func(o *bunAreaOptions) {
		o.cacheService = service
		o.keySerializer = serializer
	}
}

// WithBunClock overrides the clock used for timestamps and events.
func WithBunClock(clock func() time.Time) BunOption {
	return func(o *bunAreaOptions) {
		if clock != nil {
			o.now = clock
		}
	}
}

// NewBunArea constructs a SQL backed area. The table must exist; see
// EnsureSchema.
func NewBunArea(db *bun.DB, opts ...BunOption) *BunArea {
	options := bunAreaOptions{
		name: defaultAreaName,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}

	repo := NewStorageItemRepository(db)
	if options.cacheService != nil && options.keySerializer != nil {
		repo = repositorycache.New(repo, options.cacheService, options.keySerializer)
	}

	return &BunArea{
		name:        options.name,
		repo:        repo,
		now:         options.now,
		broadcaster: newEventBroadcaster(),
	}
}

// Name returns the area name.
func (a *BunArea) Name() string {
	return a.name
}

func (a *BunArea) GetItem(ctx context.Context, key string) (string, bool, error) {
	item, err := a.find(ctx, key)
	if err != nil || item == nil {
		return "", false, err
	}
	return item.Value, true, nil
}

func (a *BunArea) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrKeyRequired
	}
	existing, err := a.find(ctx, key)
	if err != nil {
		return err
	}

	now := a.now().UTC()
	if existing == nil {
		item := &StorageItem{
			ID:        a.itemID(key),
			Area:      a.name,
			Key:       key,
			Value:     value,
			Seq:       now.UnixNano(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := a.repo.Create(ctx, item); err != nil {
			return fmt.Errorf("localstorage: insert %q: %w", key, err)
		}
		a.broadcaster.Broadcast(newStorageEvent(ctx, key, nil, stringPtr(value), now))
		return nil
	}

	previous := existing.Value
	existing.Value = value
	existing.UpdatedAt = now
	if _, err := a.repo.Update(ctx, existing); err != nil {
		return fmt.Errorf("localstorage: update %q: %w", key, err)
	}
	a.broadcaster.Broadcast(newStorageEvent(ctx, key, stringPtr(previous), stringPtr(value), now))
	return nil
}

func (a *BunArea) RemoveItem(ctx context.Context, key string) (bool, error) {
	existing, err := a.find(ctx, key)
	if err != nil || existing == nil {
		return false, err
	}
	if err := a.repo.Delete(ctx, &StorageItem{ID: existing.ID}); err != nil {
		return false, fmt.Errorf("localstorage: delete %q: %w", key, err)
	}
	a.broadcaster.Broadcast(newStorageEvent(ctx, key, stringPtr(existing.Value), nil, a.now().UTC()))
	return true, nil
}

func (a *BunArea) Keys(ctx context.Context) ([]string, error) {
	records, _, err := a.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.area = ?", a.name).OrderExpr("?TableAlias.seq ASC")
	}))
	if err != nil {
		return nil, fmt.Errorf("localstorage: list keys: %w", err)
	}
	keys := make([]string, 0, len(records))
	for _, record := range records {
		keys = append(keys, record.Key)
	}
	return keys, nil
}

// Watch delivers storage events produced through this area value.
func (a *BunArea) Watch(ctx context.Context) (<-chan interfaces.StorageEvent, error) {
	return a.broadcaster.Subscribe(ctx)
}

func (a *BunArea) find(ctx context.Context, key string) (*StorageItem, error) {
	if key == "" {
		return nil, nil
	}
	item, err := a.repo.GetByID(ctx, a.itemID(key).String())
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("localstorage: get %q: %w", key, err)
	}
	return item, nil
}

func (a *BunArea) itemID(key string) uuid.UUID {
	return identity.StorageItemUUID(a.name, key)
}
