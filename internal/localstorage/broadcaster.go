package localstorage

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const watcherBuffer = 64

type eventBroadcaster struct {
	mu       sync.Mutex
	watchers map[uint64]chan interfaces.StorageEvent
	nextID   uint64
}

func newEventBroadcaster() *eventBroadcaster {
	return &eventBroadcaster{
		watchers: make(map[uint64]chan interfaces.StorageEvent),
	}
}

// Subscribe delivers events until ctx is cancelled; the channel is closed
// afterwards.
func (b *eventBroadcaster) Subscribe(ctx context.Context) (<-chan interfaces.StorageEvent, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		ch := make(chan interfaces.StorageEvent)
		close(ch)
		return ch, nil
	}
	ch := make(chan interfaces.StorageEvent, watcherBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.watchers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if _, ok := b.watchers[id]; ok {
			delete(b.watchers, id)
			close(ch)
		}
		b.mu.Unlock()
	}()

	return ch, nil
}

// Broadcast never blocks: slow watchers lose events once their buffer fills.
func (b *eventBroadcaster) Broadcast(evt interfaces.StorageEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.watchers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Close closes every watcher channel.
func (b *eventBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.watchers {
		delete(b.watchers, id)
		close(ch)
	}
}

func newStorageEvent(ctx context.Context, key string, oldValue, newValue *string, now time.Time) interfaces.StorageEvent {
	return interfaces.StorageEvent{
		Key:       key,
		OldValue:  oldValue,
		NewValue:  newValue,
		Origin:    OriginFrom(ctx),
		Timestamp: now,
	}
}

func stringPtr(value string) *string {
	return &value
}
