package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const (
	rootModule     = "sitecontent"
	storeModule    = "sitecontent.store"
	storageModule  = "sitecontent.storage"
	markdownModule = "sitecontent.markdown"
	commandsModule = "sitecontent.commands"
)

const (
	fieldContentType = "content_type"
	fieldLanguage    = "language"
	fieldRecordID    = "record_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// StoreLogger returns the logger namespace reserved for the content store.
func StoreLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storeModule)
}

// StorageLogger returns the logger namespace reserved for storage areas.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// MarkdownLogger returns the logger namespace reserved for markdown ingestion.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// CommandsLogger returns the logger namespace reserved for admin commands.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithRecordContext enriches the logger with the content type, language and
// record id of the entry being handled. Empty values are skipped.
func WithRecordContext(logger interfaces.Logger, contentType, language, id string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(contentType); trimmed != "" {
		fields[fieldContentType] = trimmed
	}
	if trimmed := strings.TrimSpace(language); trimmed != "" {
		fields[fieldLanguage] = trimmed
	}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[fieldRecordID] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
