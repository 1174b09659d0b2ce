package markdowncmd

import (
	"errors"

	"github.com/goliatone/go-sitecontent/internal/commands"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring
// command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// HandlerSet groups the handlers built by RegisterMarkdownCommands.
type HandlerSet struct {
	Import *ImportMarkdownHandler
	Sync   *SyncMarkdownHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	importHandlerOpts []commands.HandlerOption[ImportMarkdownCommand]
	syncHandlerOpts   []commands.HandlerOption[SyncMarkdownCommand]
}

// WithImportHandlerOptions forwards options to the import handler.
func WithImportHandlerOptions(opts ...commands.HandlerOption[ImportMarkdownCommand]) Option {
	return func(cfg *options) {
		cfg.importHandlerOpts = append(cfg.importHandlerOpts, opts...)
	}
}

// WithSyncHandlerOptions forwards options to the sync handler.
func WithSyncHandlerOptions(opts ...commands.HandlerOption[SyncMarkdownCommand]) Option {
	return func(cfg *options) {
		cfg.syncHandlerOpts = append(cfg.syncHandlerOpts, opts...)
	}
}

// RegisterMarkdownCommands builds the markdown handlers and registers them
// with reg when it is non-nil.
func RegisterMarkdownCommands(reg CommandRegistry, service interfaces.MarkdownService, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("markdown command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "markdown")
	set := &HandlerSet{
		Import: NewImportMarkdownHandler(service, logger, gates, cfg.importHandlerOpts...),
		Sync:   NewSyncMarkdownHandler(service, logger, gates, cfg.syncHandlerOpts...),
	}

	if reg != nil {
		if err := reg.RegisterCommand(set.Import); err != nil {
			return nil, err
		}
		if err := reg.RegisterCommand(set.Sync); err != nil {
			return nil, err
		}
	}
	return set, nil
}
