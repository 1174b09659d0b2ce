package markdowncmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

const (
	importDirectoryMessageType = "sitecontent.markdown.import_directory"
	syncDirectoryMessageType   = "sitecontent.markdown.sync_directory"
)

// ImportMarkdownCommand imports every Markdown file under Directory as a blog
// article, upserting by (slug, language).
type ImportMarkdownCommand struct {
	// Directory is resolved against the service base path.
	Directory string `json:"directory"`
	Pattern   string `json:"pattern,omitempty"`
	Recursive *bool  `json:"recursive,omitempty"`
	// DryRun reports what would change without writing.
	DryRun bool `json:"dry_run,omitempty"`
	// Result receives the import outcome when set.
	Result *interfaces.ImportResult `json:"-"`
}

// Type implements command.Message.
func (ImportMarkdownCommand) Type() string { return importDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd ImportMarkdownCommand) Validate() error {
	return validation.Errors{
		"directory": validateDirectory(cmd.Directory, importDirectoryMessageType),
	}.Filter()
}

// SyncMarkdownCommand imports Directory and optionally deletes articles whose
// source file disappeared.
type SyncMarkdownCommand struct {
	Directory      string `json:"directory"`
	Pattern        string `json:"pattern,omitempty"`
	Recursive      *bool  `json:"recursive,omitempty"`
	DryRun         bool   `json:"dry_run,omitempty"`
	DeleteOrphaned bool   `json:"delete_orphaned,omitempty"`
	// Result receives the sync outcome when set.
	Result *interfaces.SyncResult `json:"-"`
}

// Type implements command.Message.
func (SyncMarkdownCommand) Type() string { return syncDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd SyncMarkdownCommand) Validate() error {
	return validation.Errors{
		"directory": validateDirectory(cmd.Directory, syncDirectoryMessageType),
	}.Filter()
}

func validateDirectory(dir, messageType string) error {
	if strings.TrimSpace(dir) == "" {
		return validation.NewError(messageType+".directory_required", "directory is required")
	}
	return nil
}

func loadOptions(pattern string, recursive *bool) interfaces.LoadOptions {
	return interfaces.LoadOptions{
		Pattern:   strings.TrimSpace(pattern),
		Recursive: recursive,
	}
}
