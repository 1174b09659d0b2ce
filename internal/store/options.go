package store

import (
	"strings"
	"time"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const (
	// DefaultPrefix namespaces every key written by a store.
	DefaultPrefix = "site_content_"
	// DefaultClearedWindow is how long after ClearAll WasRecentlyCleared
	// keeps reporting true.
	DefaultClearedWindow = 5 * time.Second
)

// Option mutates the store configuration.
type Option func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if trimmed := strings.TrimSpace(prefix); trimmed != "" {
			s.prefix = trimmed
		}
	}
}

// WithLogger sets the logger used to report swallowed failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides how ids are generated for records saved without
// one.
func WithIDGenerator(generator func(time.Time) string) Option {
	return func(s *Store) {
		if generator != nil {
			s.newID = generator
		}
	}
}

// WithOrigin sets the identifier attached to storage events produced by this
// store.
func WithOrigin(origin string) Option {
	return func(s *Store) {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			s.origin = trimmed
		}
	}
}

// WithClearedWindow overrides the window used by WasRecentlyCleared.
func WithClearedWindow(window time.Duration) Option {
	return func(s *Store) {
		if window > 0 {
			s.clearedWindow = window
		}
	}
}
