package markdowncmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-sitecontent/internal/commands"
	"github.com/goliatone/go-sitecontent/internal/logging"
	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const (
	importOperation = "markdown.import_directory"
	syncOperation   = "markdown.sync_directory"

	codeFeatureDisabled = "MARKDOWN_FEATURE_DISABLED"
	codeImportFailed    = "MARKDOWN_IMPORT_FAILED"
)

// ErrMarkdownFeatureDisabled is returned when markdown ingestion is switched off.
var ErrMarkdownFeatureDisabled = errors.New("markdown command: feature disabled")

var (
	_ command.Commander[ImportMarkdownCommand] = (*ImportMarkdownHandler)(nil)
	_ command.Commander[SyncMarkdownCommand]   = (*SyncMarkdownHandler)(nil)
)

// ImportMarkdownHandler runs directory imports through the shared handler.
type ImportMarkdownHandler struct {
	inner *commands.Handler[ImportMarkdownCommand]
}

// NewImportMarkdownHandler creates a handler bound to service.
func NewImportMarkdownHandler(service interfaces.MarkdownService, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ImportMarkdownCommand]) *ImportMarkdownHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ImportMarkdownCommand) error {
		if !gates.markdownEnabled() {
			return commands.CommandError(ErrMarkdownFeatureDisabled, codeFeatureDisabled, "markdown ingestion disabled")
		}

		result, err := service.ImportDirectory(ctx, msg.Directory, interfaces.ImportOptions{
			LoadOptions: loadOptions(msg.Pattern, msg.Recursive),
			DryRun:      msg.DryRun,
		})
		if msg.Result != nil && result != nil {
			*msg.Result = *result
		}
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"created_count": len(result.Created),
				"updated_count": len(result.Updated),
				"skipped_count": len(result.Skipped),
				"error_count":   len(result.Errors),
				"dry_run":       msg.DryRun,
			}).Info("markdown.command.import_directory.completed")
		}
		if err != nil {
			return commands.CommandError(err, codeImportFailed, "markdown import failed")
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportMarkdownCommand]{
		commands.WithLogger[ImportMarkdownCommand](baseLogger),
		commands.WithOperation[ImportMarkdownCommand](importOperation),
		commands.WithMessageFields(func(msg ImportMarkdownCommand) map[string]any {
			fields := map[string]any{"directory": msg.Directory}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportMarkdownCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportMarkdownHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[ImportMarkdownCommand].
func (h *ImportMarkdownHandler) Execute(ctx context.Context, msg ImportMarkdownCommand) error {
	return h.inner.Execute(ctx, msg)
}

// SyncMarkdownHandler runs directory syncs through the shared handler.
type SyncMarkdownHandler struct {
	inner *commands.Handler[SyncMarkdownCommand]
}

// NewSyncMarkdownHandler creates a handler bound to service.
func NewSyncMarkdownHandler(service interfaces.MarkdownService, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[SyncMarkdownCommand]) *SyncMarkdownHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg SyncMarkdownCommand) error {
		if !gates.markdownEnabled() {
			return commands.CommandError(ErrMarkdownFeatureDisabled, codeFeatureDisabled, "markdown ingestion disabled")
		}

		result, err := service.Sync(ctx, msg.Directory, interfaces.SyncOptions{
			ImportOptions: interfaces.ImportOptions{
				LoadOptions: loadOptions(msg.Pattern, msg.Recursive),
				DryRun:      msg.DryRun,
			},
			DeleteOrphaned: msg.DeleteOrphaned,
		})
		if msg.Result != nil && result != nil {
			*msg.Result = *result
		}
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"created_count": result.Created,
				"updated_count": result.Updated,
				"deleted_count": result.Deleted,
				"skipped_count": result.Skipped,
				"error_count":   len(result.Errors),
				"dry_run":       msg.DryRun,
			}).Info("markdown.command.sync_directory.completed")
		}
		if err != nil {
			return commands.CommandError(err, codeImportFailed, "markdown sync failed")
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[SyncMarkdownCommand]{
		commands.WithLogger[SyncMarkdownCommand](baseLogger),
		commands.WithOperation[SyncMarkdownCommand](syncOperation),
		commands.WithMessageFields(func(msg SyncMarkdownCommand) map[string]any {
			fields := map[string]any{"directory": msg.Directory}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.DeleteOrphaned {
				fields["delete_orphaned"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[SyncMarkdownCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SyncMarkdownHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[SyncMarkdownCommand].
func (h *SyncMarkdownHandler) Execute(ctx context.Context, msg SyncMarkdownCommand) error {
	return h.inner.Execute(ctx, msg)
}
