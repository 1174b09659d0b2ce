package sitecontent

import "github.com/goliatone/go-sitecontent/internal/runtimeconfig"

var (
	ErrDefaultLanguageUnsupported = runtimeconfig.ErrDefaultLanguageUnsupported
	ErrLanguagesRequired          = runtimeconfig.ErrLanguagesRequired
	ErrStorePrefixRequired        = runtimeconfig.ErrStorePrefixRequired
	ErrClearedWindowInvalid       = runtimeconfig.ErrClearedWindowInvalid
	ErrStorageProviderUnknown     = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDSNRequired         = runtimeconfig.ErrStorageDSNRequired
	ErrStorageDirRequired         = runtimeconfig.ErrStorageDirRequired
	ErrStorageQuotaInvalid        = runtimeconfig.ErrStorageQuotaInvalid
	ErrCacheTTLInvalid            = runtimeconfig.ErrCacheTTLInvalid
	ErrCacheRequiresSQLite        = runtimeconfig.ErrCacheRequiresSQLite
	ErrMarkdownContentDirRequired = runtimeconfig.ErrMarkdownContentDirRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

const (
	StorageMemory = runtimeconfig.StorageMemory
	StorageSQLite = runtimeconfig.StorageSQLite
	StorageDir    = runtimeconfig.StorageDir
	StorageNone   = runtimeconfig.StorageNone
)

type (
	Config               = runtimeconfig.Config
	StoreConfig          = runtimeconfig.StoreConfig
	StorageConfig        = runtimeconfig.StorageConfig
	CacheConfig          = runtimeconfig.CacheConfig
	MarkdownConfig       = runtimeconfig.MarkdownConfig
	MarkdownParserConfig = runtimeconfig.MarkdownParserConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
