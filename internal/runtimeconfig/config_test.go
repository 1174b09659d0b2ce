package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-sitecontent/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"no languages", func(c *runtimeconfig.Config) { c.Languages = nil }, runtimeconfig.ErrLanguagesRequired},
		{"default not listed", func(c *runtimeconfig.Config) { c.DefaultLanguage = "fr" }, runtimeconfig.ErrDefaultLanguageUnsupported},
		{"empty prefix", func(c *runtimeconfig.Config) { c.Store.Prefix = " " }, runtimeconfig.ErrStorePrefixRequired},
		{"zero window", func(c *runtimeconfig.Config) { c.Store.ClearedWindow = 0 }, runtimeconfig.ErrClearedWindowInvalid},
		{"unknown provider", func(c *runtimeconfig.Config) { c.Storage.Provider = "redis" }, runtimeconfig.ErrStorageProviderUnknown},
		{"sqlite without dsn", func(c *runtimeconfig.Config) { c.Storage.Provider = "sqlite" }, runtimeconfig.ErrStorageDSNRequired},
		{"dir without path", func(c *runtimeconfig.Config) { c.Storage.Provider = "dir" }, runtimeconfig.ErrStorageDirRequired},
		{"negative quota", func(c *runtimeconfig.Config) { c.Storage.QuotaBytes = -1 }, runtimeconfig.ErrStorageQuotaInvalid},
		{"cache on memory", func(c *runtimeconfig.Config) { c.Storage.Cache.Enabled = true }, runtimeconfig.ErrCacheRequiresSQLite},
		{"cache without ttl", func(c *runtimeconfig.Config) {
			c.Storage.Provider = "sqlite"
			c.Storage.DSN = "file::memory:"
			c.Storage.Cache.Enabled = true
			c.Storage.Cache.TTL = 0
		}, runtimeconfig.ErrCacheTTLInvalid},
		{"markdown without dir", func(c *runtimeconfig.Config) {
			c.Markdown.Enabled = true
			c.Markdown.ContentDir = ""
		}, runtimeconfig.ErrMarkdownContentDirRequired},
		{"unknown logger", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"bad level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"bad format", func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigValidateAcceptsProviderCase(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = " SQLite "
	cfg.Storage.DSN = "file::memory:?cache=shared"
	cfg.Storage.Cache.Enabled = true

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitecontent.yaml")
	data := []byte(`
default_language: en
store:
  cleared_window: 2s
storage:
  provider: dir
  dir: /tmp/site
markdown:
  enabled: true
  parser:
    hard_wraps: true
logging:
  provider: gologger
  format: pretty
  focus: [sitecontent.store]
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := runtimeconfig.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultLanguage != "en" || len(cfg.Languages) != 2 {
		t.Fatalf("unexpected languages: %q %v", cfg.DefaultLanguage, cfg.Languages)
	}
	if cfg.Store.Prefix != "site_content_" || cfg.Store.ClearedWindow != 2*time.Second {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Storage.Provider != "dir" || cfg.Storage.Dir != "/tmp/site" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}
	if !cfg.Markdown.Enabled || cfg.Markdown.ContentDir != "content" || !cfg.Markdown.Parser.HardWraps {
		t.Fatalf("unexpected markdown config: %+v", cfg.Markdown)
	}
	if len(cfg.Logging.Focus) != 1 || cfg.Logging.Format != "pretty" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  provider: redis\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := runtimeconfig.Load(path); !errors.Is(err, runtimeconfig.ErrStorageProviderUnknown) {
		t.Fatalf("expected ErrStorageProviderUnknown, got %v", err)
	}

	if _, err := runtimeconfig.Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
