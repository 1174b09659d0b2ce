package di

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	contentcmd "github.com/goliatone/go-sitecontent/internal/commands/content"
	markdowncmd "github.com/goliatone/go-sitecontent/internal/commands/markdown"
	"github.com/goliatone/go-sitecontent/internal/localstorage"
	"github.com/goliatone/go-sitecontent/internal/logging"
	"github.com/goliatone/go-sitecontent/internal/logging/console"
	"github.com/goliatone/go-sitecontent/internal/logging/gologger"
	"github.com/goliatone/go-sitecontent/internal/markdown"
	"github.com/goliatone/go-sitecontent/internal/runtimeconfig"
	"github.com/goliatone/go-sitecontent/internal/store"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// Container wires the storage area, content store, command handlers and
// markdown service described by a runtime config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	registry       contentcmd.CommandRegistry

	bunDB         *bun.DB
	ownedDB       *sql.DB
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	area     interfaces.StorageArea
	dirArea  *localstorage.DirArea
	origin   string
	clock    func() time.Time
	store    *store.Store
	contentH *contentcmd.HandlerSet

	markdownSvc *markdown.Service
	markdownH   *markdowncmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Logging.Provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies the database used by the sqlite provider instead of
// opening Storage.DSN.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache built from Storage.Cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithStorageArea bypasses Storage.Provider entirely.
func WithStorageArea(area interfaces.StorageArea) Option {
	return func(c *Container) {
		c.area = area
	}
}

// WithOrigin fixes the store origin, mostly for tests.
func WithOrigin(origin string) Option {
	return func(c *Container) {
		c.origin = origin
	}
}

// WithClock overrides the store clock.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		c.clock = clock
	}
}

// WithCommandRegistry registers every command handler with reg.
func WithCommandRegistry(reg contentcmd.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// NewContainer validates cfg and builds every dependency.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(context.Background()); err != nil {
		c.Close()
		return nil, err
	}
	c.configureStore()
	if err := c.configureCommands(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureMarkdown(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}

	logCfg := c.Config.Logging
	switch runtimeconfig.NormalizeProvider(logCfg.Provider) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		level := console.ParseLevel(logCfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	logger := logging.StorageLogger(c.loggerProvider)
	storageCfg := c.Config.Storage

	if !c.Config.Enabled {
		c.area = nil
		logger.Info("storage.disabled")
		return nil
	}
	if c.area != nil {
		logger.Info("storage.configured", "provider", "custom")
		return nil
	}

	provider := runtimeconfig.NormalizeProvider(storageCfg.Provider)
	switch provider {
	case runtimeconfig.StorageNone:
	case runtimeconfig.StorageSQLite:
		if err := c.configureSQLite(ctx); err != nil {
			return err
		}
	case runtimeconfig.StorageDir:
		area, err := localstorage.NewDirArea(storageCfg.Dir, localstorage.WithDirLogger(logger))
		if err != nil {
			return err
		}
		c.dirArea = area
		c.area = area
	default:
		var opts []localstorage.MemoryOption
		if storageCfg.QuotaBytes > 0 {
			opts = append(opts, localstorage.WithQuota(storageCfg.QuotaBytes))
		}
		c.area = localstorage.NewMemoryArea(opts...)
	}

	logger.Info("storage.configured",
		"provider", provider,
		"area", storageCfg.Area,
		"cache", c.cacheService != nil,
	)
	return nil
}

func (c *Container) configureSQLite(ctx context.Context) error {
	storageCfg := c.Config.Storage

	if c.bunDB == nil {
		sqlDB, err := sql.Open("sqlite3", storageCfg.DSN)
		if err != nil {
			return fmt.Errorf("di: open sqlite %s: %w", storageCfg.DSN, err)
		}
		sqlDB.SetMaxOpenConns(1)
		c.ownedDB = sqlDB
		c.bunDB = bun.NewDB(sqlDB, sqlitedialect.New())
	}
	if err := localstorage.EnsureSchema(ctx, c.bunDB); err != nil {
		return fmt.Errorf("di: ensure storage schema: %w", err)
	}

	opts := []localstorage.BunOption{}
	if area := strings.TrimSpace(storageCfg.Area); area != "" {
		opts = append(opts, localstorage.WithAreaName(area))
	}
	if c.cacheService == nil && storageCfg.Cache.Enabled {
		cacheCfg := repocache.DefaultConfig()
		cacheCfg.TTL = storageCfg.Cache.TTL
		service, err := repocache.NewCacheService(cacheCfg)
		if err != nil {
			return fmt.Errorf("di: build repository cache: %w", err)
		}
		c.cacheService = service
	}
	if c.cacheService != nil {
		if c.keySerializer == nil {
			c.keySerializer = repocache.NewDefaultKeySerializer()
		}
		opts = append(opts, localstorage.WithCache(c.cacheService, c.keySerializer))
	}

	c.area = localstorage.NewBunArea(c.bunDB, opts...)
	return nil
}

func (c *Container) configureStore() {
	opts := []store.Option{
		store.WithPrefix(c.Config.Store.Prefix),
		store.WithClearedWindow(c.Config.Store.ClearedWindow),
		store.WithLogger(logging.StoreLogger(c.loggerProvider)),
	}
	if c.origin != "" {
		opts = append(opts, store.WithOrigin(c.origin))
	}
	if c.clock != nil {
		opts = append(opts, store.WithClock(c.clock))
	}
	c.store = store.New(c.area, opts...)
}

func (c *Container) configureCommands() error {
	set, err := contentcmd.RegisterContentCommands(c.registry, c.store, c.loggerProvider)
	if err != nil {
		return err
	}
	c.contentH = set
	return nil
}

func (c *Container) configureMarkdown() error {
	mdCfg := c.Config.Markdown
	if !mdCfg.Enabled {
		return nil
	}

	svc, err := markdown.NewService(markdown.Config{
		BasePath:        mdCfg.ContentDir,
		DefaultLanguage: c.Config.DefaultLanguage,
		Languages:       c.Config.Languages,
		Pattern:         mdCfg.Pattern,
		Recursive:       mdCfg.Recursive,
		Parser: interfaces.ParseOptions{
			Extensions: mdCfg.Parser.Extensions,
			HardWraps:  mdCfg.Parser.HardWraps,
			SafeMode:   mdCfg.Parser.SafeMode,
		},
	}, c.store, nil, logging.MarkdownLogger(c.loggerProvider))
	if err != nil {
		return err
	}
	c.markdownSvc = svc

	set, err := markdowncmd.RegisterMarkdownCommands(c.registry, svc, c.loggerProvider, markdowncmd.FeatureGates{
		MarkdownEnabled: func() bool { return c.Config.Markdown.Enabled },
	})
	if err != nil {
		return err
	}
	c.markdownH = set
	return nil
}

// Close stops the store, the dir watcher and any database the container
// opened itself.
func (c *Container) Close() error {
	if c.store != nil {
		c.store.Close()
	}
	var firstErr error
	if c.dirArea != nil {
		if err := c.dirArea.Close(); err != nil {
			firstErr = err
		}
	}
	if c.ownedDB != nil {
		if err := c.ownedDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.ownedDB = nil
	}
	return firstErr
}

// LoggerProvider returns the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// StorageArea returns the area behind the store, nil for the none provider.
func (c *Container) StorageArea() interfaces.StorageArea {
	return c.area
}

// BunDB returns the database used by the sqlite provider.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// Store returns the content store.
func (c *Container) Store() *store.Store {
	return c.store
}

// ContentCommands returns the content command handlers.
func (c *Container) ContentCommands() *contentcmd.HandlerSet {
	return c.contentH
}

// MarkdownService returns the markdown service, nil when markdown is disabled.
func (c *Container) MarkdownService() *markdown.Service {
	return c.markdownSvc
}

// MarkdownCommands returns the markdown handlers, nil when markdown is disabled.
func (c *Container) MarkdownCommands() *markdowncmd.HandlerSet {
	return c.markdownH
}
