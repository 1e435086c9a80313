package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gauravRathod674/OtakuRealm/filesystem"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/gauravRathod674/OtakuRealm/util"
)

const (
	blobExt = ".json"
	rawExt  = ".html"
	rawDir  = "html"

	// readable part of a file name, the digest suffix keeps names unique
	maxStemLength = 80
)

// Store is a CacheStore rooted at one directory of the filesystem backend.
// Entries are partitioned into one directory per resource kind.
type Store struct {
	root string
	now  func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now as the source of fetch timestamps and ages.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a store rooted at root.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root: root,
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Root returns the directory the store lives in.
func (s *Store) Root() string {
	return s.root
}

// Now returns the current time of the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// Path returns the file an entry for key is stored at.
func (s *Store) Path(key source.Key) string {
	return filepath.Join(s.root, string(key.Kind()), filename(key)+blobExt)
}

// RawPath returns the file the raw page content for key is stored at.
func (s *Store) RawPath(key source.Key) string {
	return filepath.Join(s.root, string(key.Kind()), rawDir, filename(key)+rawExt)
}

// Exists reports whether an entry is stored under key. It does not validate the blob.
func (s *Store) Exists(key source.Key) bool {
	exists, err := filesystem.API().Exists(s.Path(key))
	return err == nil && exists
}

// Load reads the entry stored under key.
// It fails with ErrMiss when there is none and with a *CorruptError when the blob
// is not a valid entry for key.
func (s *Store) Load(key source.Key) (*Entry, error) {
	path := s.Path(key)

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMiss
		}

		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, &CorruptError{Key: key, Path: path, Err: err}
	}

	switch {
	case entry.Payload == nil:
		return nil, &CorruptError{Key: key, Path: path, Err: errors.New("missing payload")}
	case entry.Key != key:
		return nil, &CorruptError{Key: key, Path: path, Err: fmt.Errorf("stored under %q", entry.Key)}
	}

	return &entry, nil
}

// Save stores record under key, stamped with the current time.
// The blob is written to a temporary file first and renamed into place, so a
// concurrent reader sees either the old or the new entry. Last write wins.
func (s *Store) Save(key source.Key, record source.Record, class source.TTLClass) (*Entry, error) {
	if record == nil {
		record = source.Record{}
	}

	entry := &Entry{
		Key:       key,
		Payload:   record,
		FetchedAt: s.now().UTC(),
		TTLClass:  class,
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}

	if err := filesystem.WriteAtomic(s.Path(key), data, 0o644); err != nil {
		return nil, err
	}

	return entry, nil
}

// Age returns the time since the entry under key was saved.
func (s *Store) Age(key source.Key) (time.Duration, error) {
	entry, err := s.Load(key)
	if err != nil {
		return 0, err
	}

	return entry.Age(s.now()), nil
}

// Delete removes the entry under key together with its raw page.
// Deleting a missing entry is not an error.
func (s *Store) Delete(key source.Key) error {
	for _, path := range []string{s.Path(key), s.RawPath(key)} {
		if err := filesystem.API().Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}

	return nil
}

// SaveRaw stores the raw page content fetched for key.
// The file's modification time is set from the store clock, which LoadRaw ages it by.
func (s *Store) SaveRaw(key source.Key, content string) error {
	path := s.RawPath(key)
	if err := filesystem.WriteAtomic(path, []byte(content), 0o644); err != nil {
		return err
	}

	now := s.now()
	if err := filesystem.API().Chtimes(path, now, now); err != nil {
		return fmt.Errorf("stamp %s: %w", path, err)
	}

	return nil
}

// LoadRaw returns the raw page content stored for key and its age by the store clock.
func (s *Store) LoadRaw(key source.Key) (string, time.Duration, error) {
	path := s.RawPath(key)

	info, err := filesystem.API().Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0, ErrMiss
		}

		return "", 0, err
	}

	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read %s: %w", path, err)
	}

	return string(data), s.now().Sub(info.ModTime()), nil
}

// WalkFunc is called for every blob found by Walk.
// entry is nil and err is set when the blob could not be decoded.
type WalkFunc func(path string, entry *Entry, err error) error

// Walk visits every entry of kind, or of every kind when kind is empty.
func (s *Store) Walk(kind source.Kind, fn WalkFunc) error {
	root := s.root
	if kind != "" {
		root = filepath.Join(s.root, string(kind))
	}

	err := filesystem.API().Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		if info.IsDir() {
			if info.Name() == rawDir {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != blobExt {
			return nil
		}

		data, err := filesystem.API().ReadFile(path)
		if err != nil {
			return fn(path, nil, err)
		}

		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			return fn(path, nil, &CorruptError{Path: path, Err: err})
		}

		return fn(path, &entry, nil)
	})

	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}

// Prune removes entries of kind (every kind when empty) older than olderThan,
// and undecodable blobs. It returns the number of removed entries.
func (s *Store) Prune(olderThan time.Duration, kind source.Kind) (int, error) {
	var stale []string

	err := s.Walk(kind, func(path string, entry *Entry, err error) error {
		if err != nil || entry.Age(s.now()) > olderThan {
			stale = append(stale, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, path := range stale {
		if err := filesystem.API().Remove(path); err != nil {
			return 0, fmt.Errorf("remove %s: %w", path, err)
		}

		raw := filepath.Join(filepath.Dir(path), rawDir, strings.TrimSuffix(filepath.Base(path), blobExt)+rawExt)
		_ = filesystem.API().Remove(raw)
	}

	return len(stale), nil
}

// filename is the key made filesystem-safe, with a digest of the full key
// appended so that keys which sanitize to the same text stay apart.
func filename(key source.Key) string {
	stem := strings.TrimPrefix(string(key), string(key.Kind()))
	stem = util.SanitizeFilename(util.Truncate(stem, maxStemLength))

	digest := fmt.Sprintf("%016x", xxhash.Sum64String(string(key)))
	if stem == "" {
		return digest
	}

	return stem + "-" + digest
}
