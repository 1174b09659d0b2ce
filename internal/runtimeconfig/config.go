package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrDefaultLanguageUnsupported = errors.New("sitecontent config: default language must be one of the configured languages")
	ErrLanguagesRequired          = errors.New("sitecontent config: at least one language is required")
	ErrStorePrefixRequired        = errors.New("sitecontent config: store prefix is required")
	ErrClearedWindowInvalid       = errors.New("sitecontent config: cleared window must be positive")
	ErrStorageProviderUnknown     = errors.New("sitecontent config: storage provider is invalid")
	ErrStorageDSNRequired         = errors.New("sitecontent config: storage dsn is required for the sqlite provider")
	ErrStorageDirRequired         = errors.New("sitecontent config: storage dir is required for the dir provider")
	ErrStorageQuotaInvalid        = errors.New("sitecontent config: storage quota must be zero or positive")
	ErrCacheTTLInvalid            = errors.New("sitecontent config: cache ttl must be positive when cache is enabled")
	ErrCacheRequiresSQLite        = errors.New("sitecontent config: cache is only available for the sqlite provider")
	ErrMarkdownContentDirRequired = errors.New("sitecontent config: markdown content directory is required when markdown is enabled")
	ErrLoggingProviderUnknown     = errors.New("sitecontent config: logging provider is invalid")
	ErrLoggingLevelInvalid        = errors.New("sitecontent config: logging level is invalid")
	ErrLoggingFormatInvalid       = errors.New("sitecontent config: logging format is invalid")
)

// Storage provider identifiers.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageDir    = "dir"
	StorageNone   = "none"
)

// Config aggregates the runtime options of the site content module.
type Config struct {
	// Enabled false builds an unavailable store: reads return safe defaults
	// and commands fail with a store-unavailable error.
	Enabled         bool           `yaml:"enabled"`
	DefaultLanguage string         `yaml:"default_language"`
	Languages       []string       `yaml:"languages"`
	Store           StoreConfig    `yaml:"store"`
	Storage         StorageConfig  `yaml:"storage"`
	Markdown        MarkdownConfig `yaml:"markdown"`
	Logging         LoggingConfig  `yaml:"logging"`
}

// StoreConfig shapes the key space of the content store.
type StoreConfig struct {
	Prefix        string        `yaml:"prefix"`
	ClearedWindow time.Duration `yaml:"cleared_window"`
}

// StorageConfig selects and configures the storage area backing the store.
type StorageConfig struct {
	Provider string `yaml:"provider"`
	// DSN is the database source for the sqlite provider.
	DSN string `yaml:"dsn"`
	// Dir is the directory for the dir provider.
	Dir string `yaml:"dir"`
	// Area names the partition inside a shared database.
	Area string `yaml:"area"`
	// QuotaBytes caps the memory provider. Zero means unlimited.
	QuotaBytes int         `yaml:"quota_bytes"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig toggles the repository cache in front of the sqlite provider.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// MarkdownConfig captures filesystem and parser behaviour for Markdown ingestion.
type MarkdownConfig struct {
	Enabled    bool                 `yaml:"enabled"`
	ContentDir string               `yaml:"content_dir"`
	Pattern    string               `yaml:"pattern"`
	Recursive  bool                 `yaml:"recursive"`
	Parser     MarkdownParserConfig `yaml:"parser"`
}

// MarkdownParserConfig mirrors interfaces.ParseOptions for runtime configuration.
type MarkdownParserConfig struct {
	Extensions []string `yaml:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns an in-memory setup with Portuguese as the default
// language.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		DefaultLanguage: "pt",
		Languages:       []string{"pt", "en"},
		Store: StoreConfig{
			Prefix:        "site_content_",
			ClearedWindow: 5 * time.Second,
		},
		Storage: StorageConfig{
			Provider: StorageMemory,
			Area:     "default",
			Cache: CacheConfig{
				TTL: time.Minute,
			},
		},
		Markdown: MarkdownConfig{
			ContentDir: "content",
			Pattern:    "*.md",
			Recursive:  true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Load reads a YAML file over DefaultConfig and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("sitecontent config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("sitecontent config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if len(cfg.Languages) == 0 {
		return ErrLanguagesRequired
	}
	if !containsFold(cfg.Languages, cfg.DefaultLanguage) {
		return fmt.Errorf("%w: %s", ErrDefaultLanguageUnsupported, cfg.DefaultLanguage)
	}
	if strings.TrimSpace(cfg.Store.Prefix) == "" {
		return ErrStorePrefixRequired
	}
	if cfg.Store.ClearedWindow <= 0 {
		return ErrClearedWindowInvalid
	}

	provider := NormalizeProvider(cfg.Storage.Provider)
	switch provider {
	case StorageMemory, StorageNone:
	case StorageSQLite:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	case StorageDir:
		if strings.TrimSpace(cfg.Storage.Dir) == "" {
			return ErrStorageDirRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if cfg.Storage.QuotaBytes < 0 {
		return ErrStorageQuotaInvalid
	}
	if cfg.Storage.Cache.Enabled {
		if provider != StorageSQLite {
			return ErrCacheRequiresSQLite
		}
		if cfg.Storage.Cache.TTL <= 0 {
			return ErrCacheTTLInvalid
		}
	}

	if cfg.Markdown.Enabled && strings.TrimSpace(cfg.Markdown.ContentDir) == "" {
		return ErrMarkdownContentDirRequired
	}

	logProvider := NormalizeProvider(cfg.Logging.Provider)
	if logProvider != "" && !isSupportedLogProvider(logProvider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, logProvider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if logProvider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// NormalizeProvider lowercases and trims a provider identifier.
func NormalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func containsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), target) {
			return true
		}
	}
	return false
}

func isSupportedLogProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
