package di

import (
	"testing"

	"github.com/goliatone/go-sitecontent/internal/logging/console"
	"github.com/goliatone/go-sitecontent/internal/logging/gologger"
	"github.com/goliatone/go-sitecontent/internal/runtimeconfig"
)

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	provider, ok := container.loggerProvider.(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.loggerProvider)
	}
	if provider.GetLogger("sitecontent.test") == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestConfigureLoggerProviderDefaultsToConsole(t *testing.T) {
	container, err := NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if container.loggerProvider == nil {
		t.Fatal("expected console provider")
	}
	if _, ok := container.loggerProvider.(*gologger.Provider); ok {
		t.Fatal("expected console provider, got go-logger")
	}
	if console.ParseLevel("warn") != console.LevelWarn {
		t.Fatal("expected console level parsing to map warn")
	}
}
