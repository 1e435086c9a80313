package cache

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gauravRathod674/OtakuRealm/filesystem"
	"github.com/gauravRathod674/OtakuRealm/source"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var stores atomic.Int64

func newStore() (*Store, *clock) {
	c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	root := filepath.Join("/cache", strconv.FormatInt(stores.Add(1), 10))
	return New(root, WithClock(c.Now)), c
}

func TestStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store, clk := newStore()
		key := source.NewKey(source.KindAnimeDetail, "/attack-on-titan-112")

		Convey("Nothing should exist", func() {
			So(store.Exists(key), ShouldBeFalse)

			_, err := store.Load(key)
			So(errors.Is(err, ErrMiss), ShouldBeTrue)

			_, err = store.Age(key)
			So(errors.Is(err, ErrMiss), ShouldBeTrue)
		})

		Convey("When a record is saved", func() {
			record := source.Record{"title": "Attack on Titan", "genres": []string{"Action"}}
			_, err := store.Save(key, record, source.Permanent)
			So(err, ShouldBeNil)

			Convey("It should exist in the directory of its kind", func() {
				So(store.Exists(key), ShouldBeTrue)
				So(filepath.Dir(store.Path(key)), ShouldEqual, filepath.Join(store.Root(), "anime-detail"))
				So(filepath.Ext(store.Path(key)), ShouldEqual, ".json")
			})

			Convey("It should load back", func() {
				entry, err := store.Load(key)
				So(err, ShouldBeNil)
				So(entry.Key, ShouldEqual, key)
				So(entry.TTLClass, ShouldEqual, source.Permanent)
				So(entry.Payload.String("title"), ShouldEqual, "Attack on Titan")
				So(entry.Payload.Strings("genres"), ShouldResemble, []string{"Action"})
			})

			Convey("Its age should follow the clock", func() {
				clk.Advance(90 * time.Second)
				age, err := store.Age(key)
				So(err, ShouldBeNil)
				So(age, ShouldEqual, 90*time.Second)
			})

			Convey("The blob should be pretty printed JSON", func() {
				data, err := filesystem.API().ReadFile(store.Path(key))
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "\n  \"payload\": {")
			})

			Convey("Saving again should overwrite in place", func() {
				_, err := store.Save(key, source.Record{"title": "Shingeki no Kyojin"}, source.Permanent)
				So(err, ShouldBeNil)

				entry, err := store.Load(key)
				So(err, ShouldBeNil)
				So(entry.Payload.String("title"), ShouldEqual, "Shingeki no Kyojin")

				files, err := filesystem.API().ReadDir(filepath.Dir(store.Path(key)))
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 1)
			})

			Convey("Delete should remove it", func() {
				So(store.Delete(key), ShouldBeNil)
				So(store.Exists(key), ShouldBeFalse)
				So(store.Delete(key), ShouldBeNil)
			})
		})

		Convey("A blob that is not JSON should be reported as corrupt", func() {
			So(filesystem.WriteAtomic(store.Path(key), []byte("{not json"), 0o644), ShouldBeNil)
			So(store.Exists(key), ShouldBeTrue)

			_, err := store.Load(key)
			So(errors.Is(err, ErrCorrupt), ShouldBeTrue)

			var corrupt *CorruptError
			So(errors.As(err, &corrupt), ShouldBeTrue)
			So(corrupt.Key, ShouldEqual, key)
		})

		Convey("A blob saved under another key should be reported as corrupt", func() {
			other := source.NewKey(source.KindAnimeDetail, "/naruto-677")
			_, err := store.Save(other, source.Record{"title": "Naruto"}, source.Permanent)
			So(err, ShouldBeNil)

			data, err := filesystem.API().ReadFile(store.Path(other))
			So(err, ShouldBeNil)
			So(filesystem.WriteAtomic(store.Path(key), data, 0o644), ShouldBeNil)

			_, err = store.Load(key)
			So(errors.Is(err, ErrCorrupt), ShouldBeTrue)
		})

		Convey("The raw tier should keep page content with its age", func() {
			So(store.SaveRaw(key, "<html></html>"), ShouldBeNil)

			content, _, err := store.LoadRaw(key)
			So(err, ShouldBeNil)
			So(content, ShouldEqual, "<html></html>")
			So(filepath.Base(filepath.Dir(store.RawPath(key))), ShouldEqual, "html")

			So(store.Delete(key), ShouldBeNil)
			_, _, err = store.LoadRaw(key)
			So(errors.Is(err, ErrMiss), ShouldBeTrue)
		})
	})
}

func TestFilename(t *testing.T) {
	Convey("Keys that sanitize to the same text should map to different files", t, func() {
		store, _ := newStore()
		a := source.NewKey(source.KindMangaLookup, "one:piece")
		b := source.NewKey(source.KindMangaLookup, "one?piece")

		So(store.Path(a), ShouldNotEqual, store.Path(b))
	})

	Convey("File names should be filesystem safe", t, func() {
		key := source.NewKey(source.KindReadImages, "10953-en-one-piece/8404558-chapter-1105")
		name := filename(key)
		So(name, ShouldNotContainSubstring, "/")
		So(name, ShouldNotContainSubstring, "%")
		So(name, ShouldNotContainSubstring, "?")
	})

	Convey("Very long keys should give bounded file names", t, func() {
		key := source.NewKey(source.KindSearchResults, strings.Repeat("long title ", 100))
		So(len(filename(key)), ShouldBeLessThanOrEqualTo, maxStemLength+17)
	})
}

func TestEntryFresh(t *testing.T) {
	Convey("Freshness should depend on the TTL class", t, func() {
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		fetched := now.Add(-3 * time.Minute)

		shortLived := &Entry{FetchedAt: fetched, TTLClass: source.ShortLived}
		permanent := &Entry{FetchedAt: fetched, TTLClass: source.Permanent}

		So(shortLived.Fresh(now, 2*time.Minute), ShouldBeFalse)
		So(shortLived.Fresh(now, 5*time.Minute), ShouldBeTrue)
		So(permanent.Fresh(now, 2*time.Minute), ShouldBeTrue)
	})
}

func TestPrune(t *testing.T) {
	Convey("Given entries of different ages and kinds", t, func() {
		store, clk := newStore()

		old := source.NewKey(source.KindVideoServers, "https://animesugetv.to/watch/a-1/ep-1")
		oldDetail := source.NewKey(source.KindAnimeDetail, "/a-1")
		_, err := store.Save(old, source.Record{"servers_info": source.Record{}}, source.ShortLived)
		So(err, ShouldBeNil)
		_, err = store.Save(oldDetail, source.Record{"title": "A"}, source.Permanent)
		So(err, ShouldBeNil)
		So(store.SaveRaw(old, "<html/>"), ShouldBeNil)

		clk.Advance(48 * time.Hour)

		recent := source.NewKey(source.KindVideoServers, "https://animesugetv.to/watch/b-2/ep-1")
		_, err = store.Save(recent, source.Record{"servers_info": source.Record{}}, source.ShortLived)
		So(err, ShouldBeNil)

		Convey("Walk should visit every blob and skip raw pages", func() {
			var paths []string
			err := store.Walk("", func(path string, entry *Entry, err error) error {
				So(err, ShouldBeNil)
				paths = append(paths, path)
				return nil
			})
			So(err, ShouldBeNil)
			So(paths, ShouldHaveLength, 3)
		})

		Convey("Pruning one kind should leave the others", func() {
			n, err := store.Prune(24*time.Hour, source.KindVideoServers)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
			So(store.Exists(old), ShouldBeFalse)
			So(store.Exists(recent), ShouldBeTrue)
			So(store.Exists(oldDetail), ShouldBeTrue)

			_, _, err = store.LoadRaw(old)
			So(errors.Is(err, ErrMiss), ShouldBeTrue)
		})

		Convey("Pruning every kind should drop corrupt blobs too", func() {
			broken := source.NewKey(source.KindHome)
			So(filesystem.WriteAtomic(store.Path(broken), []byte("garbage"), 0o644), ShouldBeNil)

			n, err := store.Prune(24*time.Hour, "")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)
			So(store.Exists(recent), ShouldBeTrue)
		})

		Convey("Walking a kind that was never written should be a no-op", func() {
			err := store.Walk(source.KindHome, func(string, *Entry, error) error {
				return errors.New("unexpected")
			})
			So(err, ShouldBeNil)
		})
	})
}

func TestConcurrentSave(t *testing.T) {
	Convey("Given writers and readers racing on one key", t, func() {
		store, _ := newStore()
		key := source.NewExactKey(source.KindVideoServers, "https://animesugetv.to/watch/frieren-18542/ep-1")

		_, err := store.Save(key, source.Record{"writer": float64(-1)}, source.ShortLived)
		So(err, ShouldBeNil)

		const pairs = 16
		var wg sync.WaitGroup
		errs := make(chan error, 2*pairs)

		for i := range pairs {
			wg.Add(2)

			go func() {
				defer wg.Done()
				servers := make([]any, 50)
				for j := range servers {
					servers[j] = "Megaplay-" + strconv.Itoa(j)
				}

				_, err := store.Save(key, source.Record{"writer": float64(i), "servers": servers}, source.ShortLived)
				errs <- err
			}()

			go func() {
				defer wg.Done()
				entry, err := store.Load(key)
				if err == nil && entry.Key != key {
					err = errors.New("entry stored under another key")
				}
				errs <- err
			}()
		}

		wg.Wait()
		close(errs)

		Convey("No reader should see a partial blob", func() {
			for err := range errs {
				So(err, ShouldBeNil)
				So(errors.Is(err, ErrCorrupt), ShouldBeFalse)
			}

			entry, err := store.Load(key)
			So(err, ShouldBeNil)
			So(entry.Payload["writer"], ShouldBeBetweenOrEqual, float64(-1), float64(pairs-1))
		})

		Convey("No temporary file should be left behind", func() {
			files, err := filesystem.API().ReadDir(filepath.Dir(store.Path(key)))
			So(err, ShouldBeNil)
			So(len(files), ShouldEqual, 1)
		})
	})
}

func TestRawStamp(t *testing.T) {
	Convey("Given a raw page saved at the store clock", t, func() {
		store, clk := newStore()
		key := source.NewExactKey(source.KindIframeSource, "https://animesugetv.to/watch/frieren-18542/ep-1", "sub", "Megaplay-1")
		So(store.SaveRaw(key, "<html></html>"), ShouldBeNil)

		Convey("Its age should follow the store clock, not the wall clock", func() {
			clk.Advance(25 * time.Hour)

			raw, age, err := store.LoadRaw(key)
			So(err, ShouldBeNil)
			So(raw, ShouldEqual, "<html></html>")
			So(age, ShouldEqual, 25*time.Hour)
		})
	})
}
