package markdown

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// DefaultWatchDebounce batches bursts of editor saves into one sync.
const DefaultWatchDebounce = 300 * time.Millisecond

// SyncFunc receives the outcome of every sync triggered by a watch.
type SyncFunc func(*interfaces.SyncResult, error)

// WatchDirectory syncs dir once and again after every burst of Markdown
// file changes until ctx is cancelled. Sub-directories created while
// watching are picked up when recursion is enabled.
func (s *Service) WatchDirectory(ctx context.Context, dir string, opts interfaces.SyncOptions, debounce time.Duration, onSync SyncFunc) error {
	if strings.TrimSpace(s.cfg.BasePath) == "" {
		return errors.New("markdown watch: base path is required")
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if onSync == nil {
		onSync = func(*interfaces.SyncResult, error) {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	root := filepath.Join(s.cfg.BasePath, filepath.FromSlash(s.normalisePath(dir)))
	recursive := s.cfg.Recursive
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}
	if err := addWatchTree(watcher, root, recursive); err != nil {
		return err
	}

	onSync(s.Sync(ctx, dir, opts))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 && recursive {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addWatchTree(watcher, event.Name, true)
				}
			}
			if !relevantEvent(event) {
				continue
			}
			s.logger.Debug("markdown.watch.event", "file", event.Name, "op", event.Op.String())
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("markdown.watch.error", "error", err)
		case <-timer.C:
			onSync(s.Sync(ctx, dir, opts))
		}
	}
}

func relevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".md")
}

func addWatchTree(watcher *fsnotify.Watcher, root string, recursive bool) error {
	if !recursive {
		return watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
