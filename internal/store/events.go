package store

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-sitecontent/internal/content"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// Action tags the mutation reported by a ChangeEvent.
type Action string

const (
	ActionSave   Action = "save"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionClear  Action = "clear"
)

// ChangeEvent is delivered to Subscribe handlers after every mutation made
// through the same store.
type ChangeEvent struct {
	Timestamp time.Time
	Action    Action
	Type      content.Type
	Language  content.Language
	ID        string
	Key       string
}

type subscriptions struct {
	mu      sync.RWMutex
	nextID  uint64
	changes map[uint64]func(ChangeEvent)
	storage map[uint64]func(interfaces.StorageEvent)
}

func newSubscriptions() *subscriptions {
	return &subscriptions{
		changes: make(map[uint64]func(ChangeEvent)),
		storage: make(map[uint64]func(interfaces.StorageEvent)),
	}
}

func (b *subscriptions) addChange(handler func(ChangeEvent)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.changes[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.changes, id)
			b.mu.Unlock()
		})
	}
}

func (b *subscriptions) addStorage(handler func(interfaces.StorageEvent)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.storage[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.storage, id)
			b.mu.Unlock()
		})
	}
}

func (b *subscriptions) publishChange(evt ChangeEvent) {
	b.mu.RLock()
	handlers := make([]func(ChangeEvent), 0, len(b.changes))
	for _, handler := range b.changes {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(evt)
	}
}

func (b *subscriptions) publishStorage(evt interfaces.StorageEvent) {
	b.mu.RLock()
	handlers := make([]func(interfaces.StorageEvent), 0, len(b.storage))
	for _, handler := range b.storage {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(evt)
	}
}

func (b *subscriptions) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.changes)
	clear(b.storage)
}

// Subscribe registers handler for mutations made through this store. Handlers
// run synchronously on the goroutine that performed the write. The returned
// function unsubscribes and is safe to call more than once.
func (s *Store) Subscribe(handler func(ChangeEvent)) func() {
	if handler == nil || !s.Available() {
		return func() {}
	}
	return s.subs.addChange(handler)
}

// SubscribeStorage registers handler for storage events raised by other
// writers sharing the area: other stores, or other processes for areas that
// can observe them. Events caused by this store are not delivered. Handlers
// run on a background goroutine.
func (s *Store) SubscribeStorage(handler func(interfaces.StorageEvent)) func() {
	if handler == nil || !s.Available() {
		return func() {}
	}
	unsubscribe := s.subs.addStorage(handler)
	s.startStoragePump()
	return unsubscribe
}

// Watch calls fn after any change visible to this store, local or not, and
// returns a single teardown for both subscriptions.
func (s *Store) Watch(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	stopChanges := s.Subscribe(func(ChangeEvent) { fn() })
	stopStorage := s.SubscribeStorage(func(interfaces.StorageEvent) { fn() })
	return func() {
		stopChanges()
		stopStorage()
	}
}

func (s *Store) emit(action Action, typ content.Type, lang content.Language, id, key string) {
	s.subs.publishChange(ChangeEvent{
		Timestamp: s.now(),
		Action:    action,
		Type:      typ,
		Language:  lang,
		ID:        id,
		Key:       key,
	})
}

func (s *Store) startStoragePump() {
	watcher, ok := s.area.(interfaces.StorageWatcher)
	if !ok {
		return
	}

	s.pumpMu.Lock()
	defer s.pumpMu.Unlock()
	if s.pumpCancel != nil || s.closed.Load() {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := watcher.Watch(ctx)
	if err != nil {
		cancel()
		s.logger.Warn("store.watch", "origin", s.origin, "error", err)
		return
	}
	s.pumpCancel = cancel
	s.pumpDone = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		for evt := range events {
			if !s.ownsKey(evt.Key) {
				continue
			}
			if evt.Origin != "" && evt.Origin == s.origin {
				continue
			}
			s.subs.publishStorage(evt)
		}
	}(s.pumpDone)
}

func (s *Store) stopStoragePump() {
	s.pumpMu.Lock()
	cancel, done := s.pumpCancel, s.pumpDone
	s.pumpCancel, s.pumpDone = nil, nil
	s.pumpMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
