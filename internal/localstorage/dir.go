package localstorage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-sitecontent/internal/logging"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const itemExt = ".item"

var keyEncoding = base64.RawURLEncoding

// DirArea stores one file per key inside a directory. Several processes can
// share the directory: changes written by another process surface through
// Watch as storage events with an empty origin, the way a browser reports
// writes made by another tab.
type DirArea struct {
	dir         string
	now         func() time.Time
	logger      interfaces.Logger
	broadcaster *eventBroadcaster

	mu       sync.Mutex
	known    map[string]string
	closed   bool
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}
	startErr error
	started  bool
}

var (
	_ interfaces.StorageArea    = (*DirArea)(nil)
	_ interfaces.StorageWatcher = (*DirArea)(nil)
)

// DirOption configures a DirArea.
type DirOption func(*DirArea)

// WithDirClock overrides the clock stamped on storage events.
func WithDirClock(clock func() time.Time) DirOption {
	return func(a *DirArea) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithDirLogger sets the logger used by the filesystem watcher.
func WithDirLogger(logger interfaces.Logger) DirOption {
	return func(a *DirArea) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewDirArea opens (and creates when missing) a directory backed area.
func NewDirArea(dir string, opts ...DirOption) (*DirArea, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("localstorage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("localstorage: create %s: %w", dir, err)
	}

	area := &DirArea{
		dir:         dir,
		now:         time.Now,
		logger:      logging.NoOp(),
		broadcaster: newEventBroadcaster(),
		known:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(area)
	}

	keys, err := area.scan()
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if value, ok, err := area.read(key); err == nil && ok {
			area.known[key] = value
		}
	}
	return area, nil
}

// Dir returns the backing directory.
func (a *DirArea) Dir() string {
	return a.dir
}

func (a *DirArea) GetItem(_ context.Context, key string) (string, bool, error) {
	if a.isClosed() {
		return "", false, ErrClosed
	}
	if key == "" {
		return "", false, nil
	}
	return a.read(key)
}

func (a *DirArea) SetItem(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrKeyRequired
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	previous, exists := a.known[key]
	if !exists {
		if current, ok, err := a.read(key); err == nil && ok {
			previous, exists = current, true
		}
	}
	a.known[key] = value
	if err := a.write(key, value); err != nil {
		if exists {
			a.known[key] = previous
		} else {
			delete(a.known, key)
		}
		a.mu.Unlock()
		return err
	}
	a.mu.Unlock()

	var oldValue *string
	if exists {
		oldValue = stringPtr(previous)
	}
	a.broadcaster.Broadcast(newStorageEvent(ctx, key, oldValue, stringPtr(value), a.now()))
	return nil
}

func (a *DirArea) RemoveItem(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return false, ErrClosed
	}
	previous, ok, err := a.read(key)
	if err != nil || !ok {
		delete(a.known, key)
		a.mu.Unlock()
		return false, err
	}
	delete(a.known, key)
	if err := os.Remove(a.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.known[key] = previous
		a.mu.Unlock()
		return false, fmt.Errorf("localstorage: remove %q: %w", key, err)
	}
	a.mu.Unlock()

	a.broadcaster.Broadcast(newStorageEvent(ctx, key, stringPtr(previous), nil, a.now()))
	return true, nil
}

// Keys lists keys ordered by file modification time, oldest first.
func (a *DirArea) Keys(context.Context) ([]string, error) {
	if a.isClosed() {
		return nil, ErrClosed
	}
	return a.scan()
}

// Watch delivers storage events until ctx is cancelled. The first call starts
// the filesystem watcher.
func (a *DirArea) Watch(ctx context.Context) (<-chan interfaces.StorageEvent, error) {
	if err := a.startWatcher(); err != nil {
		return nil, err
	}
	return a.broadcaster.Subscribe(ctx)
}

// Close stops the filesystem watcher and closes every watch channel.
func (a *DirArea) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	watcher := a.watcher
	stopCh, doneCh := a.stopCh, a.doneCh
	a.mu.Unlock()

	var err error
	if watcher != nil {
		close(stopCh)
		<-doneCh
		err = watcher.Close()
	}
	a.broadcaster.Close()
	return err
}

func (a *DirArea) startWatcher() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.started {
		return a.startErr
	}
	a.started = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		a.startErr = fmt.Errorf("localstorage: start watcher: %w", err)
		return a.startErr
	}
	if err := watcher.Add(a.dir); err != nil {
		_ = watcher.Close()
		a.startErr = fmt.Errorf("localstorage: watch %s: %w", a.dir, err)
		return a.startErr
	}

	a.watcher = watcher
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(watcher, a.stopCh, a.doneCh)

	a.logger.Debug("storage.dir.watch", "dir", a.dir)
	return nil
}

func (a *DirArea) run(watcher *fsnotify.Watcher, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			a.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			a.logger.Warn("storage.dir.watch_error", "dir", a.dir, "error", err)
		}
	}
}

func (a *DirArea) handleEvent(event fsnotify.Event) {
	key, ok := keyFromFile(filepath.Base(event.Name))
	if !ok {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	previous, known := a.known[key]
	current, exists, err := a.read(key)
	if err != nil {
		a.mu.Unlock()
		a.logger.Warn("storage.dir.read_failed", "key", key, "error", err)
		return
	}

	var evt interfaces.StorageEvent
	switch {
	case exists && known && current == previous:
		a.mu.Unlock()
		return
	case exists:
		a.known[key] = current
		var oldValue *string
		if known {
			oldValue = stringPtr(previous)
		}
		evt = newStorageEvent(context.Background(), key, oldValue, stringPtr(current), a.now())
	case known:
		delete(a.known, key)
		evt = newStorageEvent(context.Background(), key, stringPtr(previous), nil, a.now())
	default:
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.logger.Debug("storage.dir.external_change", "key", key)
	a.broadcaster.Broadcast(evt)
}

func (a *DirArea) scan() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("localstorage: read %s: %w", a.dir, err)
	}

	type keyed struct {
		key     string
		modTime time.Time
	}
	items := make([]keyed, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, ok := keyFromFile(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		items = append(items, keyed{key: key, modTime: info.ModTime()})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].modTime.Equal(items[j].modTime) {
			return items[i].key < items[j].key
		}
		return items[i].modTime.Before(items[j].modTime)
	})

	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = item.key
	}
	return keys, nil
}

func (a *DirArea) read(key string) (string, bool, error) {
	data, err := os.ReadFile(a.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("localstorage: read %q: %w", key, err)
	}
	return string(data), true, nil
}

func (a *DirArea) write(key, value string) error {
	tmp, err := os.CreateTemp(a.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("localstorage: write %q: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("localstorage: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("localstorage: write %q: %w", key, err)
	}
	if err := os.Rename(tmpName, a.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("localstorage: write %q: %w", key, err)
	}
	return nil
}

func (a *DirArea) path(key string) string {
	return filepath.Join(a.dir, fileForKey(key))
}

func (a *DirArea) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func fileForKey(key string) string {
	return keyEncoding.EncodeToString([]byte(key)) + itemExt
}

func keyFromFile(name string) (string, bool) {
	if !strings.HasSuffix(name, itemExt) || strings.HasPrefix(name, ".") {
		return "", false
	}
	decoded, err := keyEncoding.DecodeString(strings.TrimSuffix(name, itemExt))
	if err != nil || len(decoded) == 0 {
		return "", false
	}
	return string(decoded), true
}
