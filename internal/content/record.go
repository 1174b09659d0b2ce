package content

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Record is the envelope persisted for every piece of site content.
type Record struct {
	ID        string
	Type      Type
	Language  Language
	Payload   Payload
	CreatedAt time.Time
	UpdatedAt time.Time
}

type recordEnvelope struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type,omitempty"`
	Language  Language        `json:"language"`
	Data      json.RawMessage `json:"data,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// MarshalJSON writes the {id,type,language,data,createdAt,updatedAt} shape.
func (r Record) MarshalJSON() ([]byte, error) {
	env := recordEnvelope{
		ID:        r.ID,
		Type:      r.Type,
		Language:  r.Language,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if HasPayload(r.Payload) {
		if r.Type != "" && r.Payload.ContentType() != r.Type {
			return nil, fmt.Errorf("%w: %s payload on %s record", ErrPayloadMismatch, r.Payload.ContentType(), r.Type)
		}
		data, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// UnmarshalJSON reads the envelope, accepting "payload" as an alias for
// "data". The payload is decoded into the concrete type registered for the
// record type. Envelopes written without a type must be decoded with
// DecodeRecord.
func (r *Record) UnmarshalJSON(raw []byte) error {
	decoded, err := DecodeRecord(raw, "")
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

// DecodeRecord decodes an envelope, using fallback when the envelope itself
// carries no type.
func DecodeRecord(raw []byte, fallback Type) (Record, error) {
	var env recordEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Record{}, err
	}
	typ := env.Type
	if typ == "" {
		typ = fallback
	}
	payload, err := NewPayload(typ)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", err, typ)
	}
	data := env.Data
	if len(data) == 0 {
		data = env.Payload
	}
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, payload); err != nil {
			return Record{}, fmt.Errorf("decode %s payload: %w", typ, err)
		}
	}
	return Record{
		ID:        env.ID,
		Type:      typ,
		Language:  env.Language,
		Payload:   payload,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
	}, nil
}

// Slug returns the record's slug, or "" for payloads without one.
func (r Record) Slug() string {
	if !HasPayload(r.Payload) {
		return ""
	}
	if s, ok := r.Payload.(Sluggable); ok {
		return s.SlugValue()
	}
	return ""
}

// Published reports whether the record is publicly visible.
func (r Record) Published() bool {
	if !HasPayload(r.Payload) {
		return false
	}
	if p, ok := r.Payload.(Publishable); ok {
		return p.IsPublished()
	}
	return true
}

// HasPayload reports whether p holds a value. A typed nil pointer such as
// (*BlogArticle)(nil) counts as no payload.
func HasPayload(p Payload) bool {
	if p == nil {
		return false
	}
	v := reflect.ValueOf(p)
	return v.Kind() != reflect.Pointer || !v.IsNil()
}

// As extracts the payload as the concrete value type T, accepting both T and
// *T payloads.
func As[T Payload](r Record) (T, bool) {
	switch v := any(r.Payload).(type) {
	case T:
		return v, true
	case *T:
		if v != nil {
			return *v, true
		}
	}
	var zero T
	return zero, false
}
