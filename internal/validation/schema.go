package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/goliatone/go-sitecontent/internal/content"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// PayloadValidationError surfaces validation issues with schema-aware context.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from an error.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

var compiled sync.Map // content.Type -> *jsonschema.Schema

// ValidateEnvelope checks a persisted record envelope against the schema of
// its content type. fallback is used when the envelope carries no type.
func ValidateEnvelope(raw []byte, fallback content.Type) error {
	var doc any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return &PayloadValidationError{
			Issues: []ValidationIssue{{Message: "malformed JSON: " + err.Error()}},
			Cause:  err,
		}
	}

	typ := fallback
	if obj, ok := doc.(map[string]any); ok {
		if declared, ok := obj["type"].(string); ok && declared != "" {
			typ = content.Type(declared)
		}
	}
	if !typ.Valid() {
		return &PayloadValidationError{
			Issues: []ValidationIssue{{Location: "/type", Message: fmt.Sprintf("unknown content type %q", typ)}},
			Cause:  content.ErrUnknownType,
		}
	}

	schema, err := envelopeValidator(typ)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	if err := schema.Validate(doc); err != nil {
		return &PayloadValidationError{
			Issues: Issues(err),
			Cause:  err,
		}
	}
	return nil
}

// EnvelopeSchema returns the JSON schema describing the envelope of records
// of type t.
func EnvelopeSchema(t content.Type) map[string]any {
	data := payloadSchema(t)
	languages := make([]any, 0, len(content.Languages()))
	for _, lang := range content.Languages() {
		languages = append(languages, string(lang))
	}
	timestamp := map[string]any{"type": "string", "format": "date-time"}

	idSchema := map[string]any{"type": "string"}
	if t.IsCollection() {
		idSchema["minLength"] = 1
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"id":        idSchema,
			"type":      map[string]any{"const": string(t)},
			"language":  map[string]any{"enum": languages},
			"data":      data,
			"payload":   data,
			"createdAt": timestamp,
			"updatedAt": timestamp,
		},
		"required": []any{"language"},
		"anyOf": []any{
			map[string]any{"required": []any{"data"}},
			map[string]any{"required": []any{"payload"}},
		},
	}
}

func payloadSchema(t content.Type) map[string]any {
	str := map[string]any{"type": "string"}
	slug := map[string]any{"type": "string", "pattern": "^[a-z0-9]+(?:-[a-z0-9]+)*$"}

	object := func(required []any, properties map[string]any) map[string]any {
		schema := map[string]any{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			schema["required"] = required
		}
		return schema
	}

	switch t {
	case content.TypeHome:
		return object([]any{"heroTitle"}, map[string]any{
			"heroTitle":    map[string]any{"type": "string", "minLength": 1},
			"heroSubtitle": str,
			"ctaLabel":     str,
			"ctaUrl":       str,
			"highlights":   map[string]any{"type": "array"},
		})
	case content.TypeAbout:
		return object([]any{"title", "bio"}, map[string]any{
			"title":      str,
			"bio":        str,
			"photoUrl":   str,
			"milestones": map[string]any{"type": "array"},
		})
	case content.TypeServices:
		return object([]any{"title"}, map[string]any{
			"title": str,
			"intro": str,
			"services": map[string]any{
				"type":  "array",
				"items": object([]any{"name"}, map[string]any{"name": str}),
			},
		})
	case content.TypeContact:
		return object([]any{"title", "email"}, map[string]any{
			"title": str,
			"email": map[string]any{"type": "string", "format": "email"},
		})
	case content.TypeGlobal:
		return object([]any{"siteName"}, map[string]any{
			"siteName": map[string]any{"type": "string", "minLength": 1},
			"social": map[string]any{
				"type":                 "object",
				"additionalProperties": str,
			},
		})
	case content.TypeBlogArticle:
		return object([]any{"title", "slug"}, map[string]any{
			"title":          map[string]any{"type": "string", "minLength": 1},
			"slug":           slug,
			"tags":           map[string]any{"type": "array", "items": str},
			"published":      map[string]any{"type": "boolean"},
			"publishedAt":    map[string]any{"type": "string", "format": "date-time"},
			"readingMinutes": map[string]any{"type": "integer", "minimum": 0},
		})
	case content.TypeFAQ:
		return object([]any{"question", "answer"}, map[string]any{
			"question":  str,
			"answer":    str,
			"slug":      slug,
			"order":     map[string]any{"type": "integer"},
			"published": map[string]any{"type": "boolean"},
		})
	default:
		return map[string]any{"type": "object"}
	}
}

func envelopeValidator(t content.Type) (*jsonschema.Schema, error) {
	if cached, ok := compiled.Load(t); ok {
		return cached.(*jsonschema.Schema), nil
	}
	schema, err := compileSchema(EnvelopeSchema(t))
	if err != nil {
		return nil, err
	}
	compiled.Store(t, schema)
	return schema, nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
