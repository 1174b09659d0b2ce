package content

import "errors"

var (
	ErrUnknownType     = errors.New("content: unknown content type")
	ErrUnknownLanguage = errors.New("content: unknown language")
	ErrPayloadMismatch = errors.New("content: payload does not match record type")
	ErrPayloadMissing  = errors.New("content: payload is required")
	ErrSlugRequired    = errors.New("content: slug is required")
	ErrSlugInvalid     = errors.New("content: slug contains invalid characters")
)
