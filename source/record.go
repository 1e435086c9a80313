// Package source defines the scraped domain: generic records, resource kinds,
// cache keys and the upstream sites they come from.
package source

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Record is a parsed page: a JSON-compatible tree of maps, slices and primitives.
type Record map[string]any

// Marker fields.
const (
	NotFoundField = "not_found"
	ReasonField   = "reason"
	PartialField  = "partial"
	MissingField  = "missing"
	ErrorField    = "error"
)

// NotFound returns a record stating that discovery found nothing.
// It is a valid result, not a failure.
func NotFound(reason string) Record {
	return Record{NotFoundField: true, ReasonField: reason}
}

// Failed returns the empty placeholder of a branch that could not be produced.
func Failed(err error) Record {
	return Record{ErrorField: err.Error()}
}

// IsNotFound reports whether r carries the not-found marker.
func (r Record) IsNotFound() bool {
	v, _ := r[NotFoundField].(bool)
	return v
}

// IsPartial reports whether some optional sections were absent when r was parsed.
func (r Record) IsPartial() bool {
	v, _ := r[PartialField].(bool)
	return v
}

// MarkPartial flags r as partial and records which sections were missing.
func (r Record) MarkPartial(fields ...string) {
	if len(fields) == 0 {
		return
	}

	missing := append(r.Strings(MissingField), fields...)
	slices.Sort(missing)
	r[PartialField] = true
	r[MissingField] = slices.Compact(missing)
}

// String returns the string stored under field, or "".
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Strings returns the string list stored under field.
// Lists decoded from JSON ([]any) are converted.
func (r Record) Strings(field string) []string {
	switch v := r[field].(type) {
	case []string:
		return slices.Clone(v)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Record returns the nested record stored under field, or an empty one.
func (r Record) Record(field string) Record {
	switch v := r[field].(type) {
	case Record:
		return v
	case map[string]any:
		return v
	default:
		return Record{}
	}
}

// Records returns the list of nested records stored under field.
func (r Record) Records(field string) []Record {
	switch v := r[field].(type) {
	case []Record:
		return v
	case []map[string]any:
		out := make([]Record, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			switch m := item.(type) {
			case Record:
				out = append(out, m)
			case map[string]any:
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Normalize round-trips r through JSON so that an in-memory record and the same
// record loaded from the cache have identical shapes.
func Normalize(r Record) (Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	return out, nil
}
