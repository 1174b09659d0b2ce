package contentcmd

import (
	"encoding/json"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-sitecontent/internal/content"
)

const (
	saveContentMessageType   = "sitecontent.content.save"
	deleteContentMessageType = "sitecontent.content.delete"
	clearContentMessageType  = "sitecontent.content.clear"
	importRecordMessageType  = "sitecontent.content.import_record"
)

// SaveContentCommand creates a record, or updates it when ID is set.
type SaveContentCommand struct {
	ContentType content.Type     `json:"type"`
	Language    content.Language `json:"language"`
	// ID selects the record to update. Empty creates a new collection item or
	// writes the singleton.
	ID      string          `json:"id,omitempty"`
	Payload content.Payload `json:"-"`
	// Result receives the stored record when set.
	Result *content.Record `json:"-"`
}

// Type implements command.Message.
func (SaveContentCommand) Type() string { return saveContentMessageType }

// Validate checks the envelope. Payload rules run in the handler after slug
// normalization.
func (cmd SaveContentCommand) Validate() error {
	return validation.Errors{
		"type":     validateType(cmd.ContentType),
		"language": validateLanguage(cmd.Language),
		"payload":  validatePayloadEnvelope(cmd.ContentType, cmd.Payload),
	}.Filter()
}

// DeleteContentCommand removes a single record.
type DeleteContentCommand struct {
	ContentType content.Type     `json:"type"`
	Language    content.Language `json:"language"`
	ID          string           `json:"id,omitempty"`
}

// Type implements command.Message.
func (DeleteContentCommand) Type() string { return deleteContentMessageType }

// Validate requires an id for collection types.
func (cmd DeleteContentCommand) Validate() error {
	return validation.Errors{
		"type":     validateType(cmd.ContentType),
		"language": validateLanguage(cmd.Language),
		"id": validation.Validate(cmd.ID, validation.When(cmd.ContentType.IsCollection(),
			validation.By(func(value any) error {
				if strings.TrimSpace(value.(string)) == "" {
					return validation.NewError("sitecontent.content.id_required", "id is required for collection types")
				}
				return nil
			}),
		)),
	}.Filter()
}

// ClearContentCommand removes every record, or only the records of
// ContentType when set.
type ClearContentCommand struct {
	ContentType content.Type `json:"type,omitempty"`
	// Removed receives the number of removed keys when set.
	Removed *int `json:"-"`
}

// Type implements command.Message.
func (ClearContentCommand) Type() string { return clearContentMessageType }

// Validate accepts an empty type.
func (cmd ClearContentCommand) Validate() error {
	if cmd.ContentType == "" {
		return nil
	}
	return validation.Errors{"type": validateType(cmd.ContentType)}.Filter()
}

// ImportRecordCommand stores a raw record envelope, such as one exported from
// another store.
type ImportRecordCommand struct {
	Raw json.RawMessage `json:"record"`
	// ContentType is used when the envelope carries no type.
	ContentType content.Type    `json:"type,omitempty"`
	Result      *content.Record `json:"-"`
}

// Type implements command.Message.
func (ImportRecordCommand) Type() string { return importRecordMessageType }

// Validate requires a non-empty envelope. Schema validation runs in the
// handler.
func (cmd ImportRecordCommand) Validate() error {
	errs := validation.Errors{
		"record": validateRaw(cmd.Raw),
	}
	if cmd.ContentType != "" {
		errs["type"] = validateType(cmd.ContentType)
	}
	return errs.Filter()
}

func validatePayloadEnvelope(t content.Type, payload content.Payload) error {
	if !content.HasPayload(payload) {
		return validation.NewError("sitecontent.content.payload_required", "payload is required")
	}
	if t != "" && payload.ContentType() != t {
		return validation.NewError("sitecontent.content.payload_mismatch", "payload does not match content type")
	}
	return nil
}

func validateRaw(raw json.RawMessage) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return validation.NewError("sitecontent.content.record_required", "record is required")
	}
	return nil
}

func validateType(t content.Type) error {
	if t == "" {
		return validation.NewError("sitecontent.content.type_required", "content type is required")
	}
	if !t.Valid() {
		return validation.NewError("sitecontent.content.type_unknown", "unknown content type")
	}
	return nil
}

func validateLanguage(l content.Language) error {
	if l == "" {
		return validation.NewError("sitecontent.content.language_required", "language is required")
	}
	if !l.Valid() {
		return validation.NewError("sitecontent.content.language_unknown", "unknown language")
	}
	return nil
}
