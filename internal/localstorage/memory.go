package localstorage

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// MemoryArea is an in-process storage area. Keys iterate in insertion order,
// the way browsers enumerate localStorage.
type MemoryArea struct {
	mu          sync.RWMutex
	items       map[string]string
	order       []string
	used        int
	quota       int
	now         func() time.Time
	broadcaster *eventBroadcaster
}

var (
	_ interfaces.StorageArea    = (*MemoryArea)(nil)
	_ interfaces.StorageWatcher = (*MemoryArea)(nil)
)

// MemoryOption configures a MemoryArea.
type MemoryOption func(*MemoryArea)

// WithQuota caps the combined size of keys and values in bytes. Zero means
// unlimited.
func WithQuota(bytes int) MemoryOption {
	return func(a *MemoryArea) {
		if bytes > 0 {
			a.quota = bytes
		}
	}
}

// WithMemoryClock overrides the clock stamped on storage events.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(a *MemoryArea) {
		if clock != nil {
			a.now = clock
		}
	}
}

// NewMemoryArea constructs an empty in-memory area.
func NewMemoryArea(opts ...MemoryOption) *MemoryArea {
	area := &MemoryArea{
		items:       make(map[string]string),
		now:         time.Now,
		broadcaster: newEventBroadcaster(),
	}
	for _, opt := range opts {
		opt(area)
	}
	return area
}

func (a *MemoryArea) GetItem(_ context.Context, key string) (string, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	value, ok := a.items[key]
	return value, ok, nil
}

func (a *MemoryArea) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrKeyRequired
	}

	a.mu.Lock()
	previous, exists := a.items[key]
	used := a.used + len(value)
	if exists {
		used -= len(previous)
	} else {
		used += len(key)
	}
	if a.quota > 0 && used > a.quota {
		a.mu.Unlock()
		return ErrQuotaExceeded
	}
	a.items[key] = value
	a.used = used
	if !exists {
		a.order = append(a.order, key)
	}
	a.mu.Unlock()

	var oldValue *string
	if exists {
		oldValue = stringPtr(previous)
	}
	a.broadcaster.Broadcast(newStorageEvent(ctx, key, oldValue, stringPtr(value), a.now()))
	return nil
}

func (a *MemoryArea) RemoveItem(ctx context.Context, key string) (bool, error) {
	a.mu.Lock()
	previous, exists := a.items[key]
	if !exists {
		a.mu.Unlock()
		return false, nil
	}
	delete(a.items, key)
	a.used -= len(key) + len(previous)
	for i, candidate := range a.order {
		if candidate == key {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	a.mu.Unlock()

	a.broadcaster.Broadcast(newStorageEvent(ctx, key, stringPtr(previous), nil, a.now()))
	return true, nil
}

func (a *MemoryArea) Keys(context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.order...), nil
}

// Len reports the number of stored items.
func (a *MemoryArea) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// Watch delivers storage events until ctx is cancelled.
func (a *MemoryArea) Watch(ctx context.Context) (<-chan interfaces.StorageEvent, error) {
	return a.broadcaster.Subscribe(ctx)
}
