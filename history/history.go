// Package history provides the implementation for tracking and persisting user media consumption state.
// Every user gets a single-file store; guests have no history.
package history

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gauravRathod674/OtakuRealm/filesystem"
	"github.com/gauravRathod674/OtakuRealm/util"
	"github.com/google/uuid"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

var (
	// ErrGuest is returned by operations that need an identified user.
	ErrGuest = errors.New("history requires an identified user")

	ErrNotFound = errors.New("history entry not found")
)

// Store keeps the histories of every user below one directory.
type Store struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	cachers map[string]*gache.Cache[*book]
}

type Option func(*Store)

// WithClock replaces the clock stamping entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:     dir,
		now:     time.Now,
		cachers: make(map[string]*gache.Cache[*book]),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Path returns the history file of user.
func (s *Store) Path(user string) string {
	return filepath.Join(s.dir, util.SanitizeFilename(user)+".json")
}

// cacher must be called with s.mu held.
func (s *Store) cacher(user string) *gache.Cache[*book] {
	if c, ok := s.cachers[user]; ok {
		return c
	}

	c := gache.New[*book](&gache.Options{
		Path:       s.Path(user),
		FileSystem: &filesystem.GacheFs{},
	})
	s.cachers[user] = c
	return c
}

func (s *Store) load(user string) (*book, error) {
	b, expired, err := s.cacher(user).Get()
	if err != nil {
		return nil, err
	}

	if expired || b == nil {
		return &book{}, nil
	}

	return b, nil
}

// update applies fn to the book of user and persists it when fn succeeds.
func (s *Store) update(user mo.Option[string], fn func(b *book) error) error {
	id, ok := user.Get()
	if !ok {
		return ErrGuest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.load(id)
	if err != nil {
		return err
	}

	if err := fn(b); err != nil {
		return err
	}

	return s.cacher(id).Set(b)
}

func (s *Store) view(user mo.Option[string]) (*book, error) {
	id, ok := user.Get()
	if !ok {
		return nil, ErrGuest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(id)
}

func newest[T any](entries []T, at func(T) time.Time) []T {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return at(b).Compare(at(a))
	})
	return sorted
}

// Watched lists the watch entries of user, newest first.
func (s *Store) Watched(user mo.Option[string]) ([]*WatchEntry, error) {
	b, err := s.view(user)
	if err != nil {
		return nil, err
	}

	return newest(b.Watch, func(w *WatchEntry) time.Time { return w.UpdatedAt }), nil
}

// LatestWatch returns the most recent entry of title.
func (s *Store) LatestWatch(user mo.Option[string], title string) (mo.Option[*WatchEntry], error) {
	entries, err := s.Watched(user)
	if err != nil {
		return mo.None[*WatchEntry](), err
	}

	entry, ok := lo.Find(entries, func(w *WatchEntry) bool {
		return strings.EqualFold(w.AnimeTitle, title)
	})

	return lo.Ternary(ok, mo.Some(entry), mo.None[*WatchEntry]()), nil
}

// RecordWatch returns the entry of the same title and episode, creating it from
// entry when there is none. The boolean reports whether it was created.
func (s *Store) RecordWatch(user mo.Option[string], entry WatchEntry) (*WatchEntry, bool, error) {
	var (
		result  *WatchEntry
		created bool
	)

	err := s.update(user, func(b *book) error {
		if existing, ok := lo.Find(b.Watch, func(w *WatchEntry) bool {
			return w.same(entry.AnimeTitle, entry.EpisodeNumber)
		}); ok {
			result = existing
			return nil
		}

		entry.ID = uuid.NewString()
		entry.UpdatedAt = s.now().UTC()
		entry.Genres = lo.Uniq(entry.Genres)

		b.Watch = append(b.Watch, &entry)
		result, created = &entry, true
		return nil
	})

	return result, created, err
}

// DeleteWatch removes the watch entry id.
func (s *Store) DeleteWatch(user mo.Option[string], id string) error {
	return s.update(user, func(b *book) error {
		_, index, ok := lo.FindIndexOf(b.Watch, func(w *WatchEntry) bool { return w.ID == id })
		if !ok {
			return ErrNotFound
		}

		b.Watch = slices.Delete(b.Watch, index, index+1)
		return nil
	})
}

// ClearWatch removes every watch entry of user.
func (s *Store) ClearWatch(user mo.Option[string]) error {
	return s.update(user, func(b *book) error {
		b.Watch = nil
		return nil
	})
}

// ReadHistory lists the read entries of user, newest first.
func (s *Store) ReadHistory(user mo.Option[string]) ([]*ReadEntry, error) {
	b, err := s.view(user)
	if err != nil {
		return nil, err
	}

	return newest(b.Read, func(r *ReadEntry) time.Time { return r.UpdatedAt }), nil
}

// ContinueReading lists the unfinished chapters of user, newest first.
func (s *Store) ContinueReading(user mo.Option[string]) ([]*ReadEntry, error) {
	entries, err := s.ReadHistory(user)
	if err != nil {
		return nil, err
	}

	return lo.Filter(entries, func(r *ReadEntry, _ int) bool {
		return r.Unfinished()
	}), nil
}

// SaveRead creates or updates the entry of the same manga and chapter.
func (s *Store) SaveRead(user mo.Option[string], entry ReadEntry) (*ReadEntry, error) {
	var result *ReadEntry

	err := s.update(user, func(b *book) error {
		entry.Genres = lo.Uniq(entry.Genres)
		entry.UpdatedAt = s.now().UTC()

		if existing, ok := lo.Find(b.Read, func(r *ReadEntry) bool {
			return r.same(entry.MangaTitle, entry.ChapterName)
		}); ok {
			entry.ID = existing.ID
			if len(entry.Genres) == 0 {
				entry.Genres = existing.Genres
			}

			*existing = entry
			result = existing
			return nil
		}

		entry.ID = uuid.NewString()
		b.Read = append(b.Read, &entry)
		result = &entry
		return nil
	})

	return result, err
}

// DeleteRead removes the read entry id.
func (s *Store) DeleteRead(user mo.Option[string], id string) error {
	return s.update(user, func(b *book) error {
		_, index, ok := lo.FindIndexOf(b.Read, func(r *ReadEntry) bool { return r.ID == id })
		if !ok {
			return ErrNotFound
		}

		b.Read = slices.Delete(b.Read, index, index+1)
		return nil
	})
}

// ClearRead removes every read entry of user.
func (s *Store) ClearRead(user mo.Option[string]) error {
	return s.update(user, func(b *book) error {
		b.Read = nil
		return nil
	})
}
