package contentcmd

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

// HandlerSet groups the content command handlers.
type HandlerSet struct {
	Save   *SaveContentHandler
	Delete *DeleteContentHandler
	Clear  *ClearContentHandler
	Import *ImportRecordHandler
}

// RegisterContentCommands builds the content handlers over store and
// registers them with reg when it is non-nil.
func RegisterContentCommands(reg CommandRegistry, store ContentStore, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if store == nil {
		return nil, errors.New("content command registration: store is nil")
	}

	logger := commands.CommandLogger(provider, "content")
	set := &HandlerSet{
		Save:   NewSaveContentHandler(store, logger),
		Delete: NewDeleteContentHandler(store, logger),
		Clear:  NewClearContentHandler(store, logger),
		Import: NewImportRecordHandler(store, logger),
	}

	if reg != nil {
		for _, handler := range []any{set.Save, set.Delete, set.Clear, set.Import} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}
