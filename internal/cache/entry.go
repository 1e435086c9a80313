// Package cache persists parsed records on the filesystem backend, one JSON file per key.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/gauravRathod674/OtakuRealm/source"
)

// Entry is the on-disk envelope of one cached record.
type Entry struct {
	Key       source.Key      `json:"key" jsonschema:"description=Canonical resource key the entry was saved under"`
	Payload   source.Record   `json:"payload" jsonschema:"description=Parsed record"`
	FetchedAt time.Time       `json:"fetched_at" jsonschema:"description=Time of the fetch that produced the payload"`
	TTLClass  source.TTLClass `json:"ttl_class" jsonschema:"enum=permanent,enum=short_lived"`
}

// Age returns how long ago the entry was fetched.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}

// Fresh reports whether the entry may still be served.
// Permanent entries are always fresh; short-lived ones until their age exceeds ttl.
func (e *Entry) Fresh(now time.Time, ttl time.Duration) bool {
	if e.TTLClass != source.ShortLived {
		return true
	}

	return e.Age(now) < ttl
}

var (
	// ErrMiss is returned when no entry is stored under a key.
	ErrMiss = errors.New("cache miss")

	// ErrCorrupt is matched by every CorruptError.
	ErrCorrupt = errors.New("corrupt cache entry")
)

// CorruptError reports a stored blob that is not a valid entry.
type CorruptError struct {
	Key  source.Key
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt cache entry %s (%s): %v", e.Key, e.Path, e.Err)
}

func (e *CorruptError) Unwrap() []error {
	return []error{ErrCorrupt, e.Err}
}
