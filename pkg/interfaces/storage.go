package interfaces

import (
	"context"
	"time"
)

// StorageArea is a string keyed, string valued storage area with a stable
// iteration order. Content stores layer their key scheme and JSON encoding on
// top of it.
type StorageArea interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem reports whether the key existed.
	RemoveItem(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
}

// StorageWatcher is implemented by areas that can report item changes to
// other consumers sharing the same area.
type StorageWatcher interface {
	Watch(ctx context.Context) (<-chan StorageEvent, error)
}

// StorageEvent describes a single item change inside a storage area. A nil
// NewValue means the key was removed; a nil OldValue means it was created.
type StorageEvent struct {
	Key       string
	OldValue  *string
	NewValue  *string
	Origin    string
	Timestamp time.Time
}
