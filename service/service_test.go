package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gauravRathod674/OtakuRealm/config"
	"github.com/gauravRathod674/OtakuRealm/filesystem"
	"github.com/gauravRathod674/OtakuRealm/history"
	"github.com/gauravRathod674/OtakuRealm/internal/cache"
	"github.com/gauravRathod674/OtakuRealm/internal/fetch"
	"github.com/gauravRathod674/OtakuRealm/internal/pipeline"
	"github.com/gauravRathod674/OtakuRealm/mangadex"
	"github.com/gauravRathod674/OtakuRealm/source"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
	_ = config.Setup()
}

const (
	lookupPage = `<html><body><form class="sorters"></form>
<div class="original anime main-card"><div class="item"><div class="inner">
  <div class="item-top"><a class="poster" href="/watch/dandadan-19319"><img src="d.jpg"></a></div>
</div></div></div></body></html>`

	emptyLookupPage = `<html><body><form class="sorters"></form></body></html>`

	serversPage = `<html><body><div class="server-wrapper">
  <div class="server-type" data-type="sub"><div class="name">SUB</div>
    <div class="server-list"><div class="server"><span>Megaplay-1</span></div></div></div>
</div></body></html>`

	playerPage = `<html><body><div class="server-wrapper"></div>
<div id="player"><iframe src="https://megaplay.test/e/1"></iframe></div></body></html>`

	noPlayerPage = `<html><body><div class="server-wrapper"></div>
<div id="player"><iframe></iframe></div></body></html>`

	animeDetailPage = `<html><body><div id="ani_detail">
  <div class="film-poster"><img src="https://kaido.test/dandadan.jpg"></div>
  <h2 class="film-name">Dandadan</h2>
  <div class="film-stats"><span class="item">TV</span><span class="item">24m</span></div>
  <div class="anisc-info"><div class="item-list"><a>Action</a><a>Comedy</a></div></div>
</div></body></html>`

	listingPage = `<html><body><div class="film_list-wrap">
  <div class="flw-item"><h3 class="film-name"><a class="dynamic-name" href="/dandadan-19319">Dandadan</a></h3></div>
  <div class="flw-item"><h3 class="film-name"><a class="dynamic-name" href="/frieren-18542">Frieren</a></h3></div>
</div></body></html>`

	homePage = `<html><body><div id="anime-trending"></div>
<ul class="sidebar_menu-list"><li><a class="nav-link" href="/genre/action">Action</a></li></ul></body></html>`

	mangaLookupPage = `<html><body><main><div q:key="q4_9">
  <h3 q:key="o2_2"><a href="/title/75577-en-solo-leveling">Solo Leveling</a></h3>
  <div q:key="R7_8"><a href="/title/75577-en-solo-leveling/1-ch-200">Ch 200</a></div>
</div></main></body></html>`

	mangaDetailPage = `<html><body><main>
<div q:key="g0_12">
  <img src="https://mpcdn/cover.jpg" title="Solo Leveling">
  <div q:key="30_2"><span>Action,</span><span>Fantasy</span></div>
</div>
<div data-name="chapter-list">
  <a href="/title/75577-en-solo-leveling/1-ch-200">Ch 200</a>
  <a href="/title/75577-en-solo-leveling/1-ch-199">Ch 199</a>
</div>
</main></body></html>`

	mangaHomePage = `<html><body><div id="manga-trending">
  <div class="swiper-slide"><div class="mp-desc"><p class="alias-name"><strong>Berserk</strong></p></div></div>
</div></body></html>`

	mangaListingPage = `<html><body><div class="mls-wrap">
  <div class="item item-spc"><a class="manga-poster" href="/berserk-1"></a><h3 class="manga-name">Berserk</h3></div>
  <div class="item item-spc"><a class="manga-poster" href="/vagabond-2"></a><h3 class="manga-name">Vagabond</h3></div>
</div></body></html>`

	chapterPage = `<html><body><div data-name="image-show">
  <img src="https://img.test/1.jpg"><img src="https://img.test/2.jpg">
</div></body></html>`
)

func searchPage(page, last int) string {
	return fmt.Sprintf(`<html><body><form class="sorters"></form>
<div class="original anime main-card"><div class="item"><div class="inner">
  <div class="item-bottom"><div class="name"><a>Dandadan %d</a></div></div>
</div></div></div>
<ul class="pagination"><li><a title="Last" href="/filter?keyword=dandadan&page=%d">»</a></li></ul>
</body></html>`, page, last)
}

// route names the page a target points at.
func route(target fetch.Target) string {
	u, _ := url.Parse(target.URL)

	switch {
	case target.Interact != nil:
		return "player"
	case strings.Contains(u.Path, "/ep-"):
		return "servers"
	case u.Host == "animesugetv.to" && u.Query().Has("term_type[]"):
		return "lookup"
	case u.Host == "animesugetv.to":
		return "search-" + u.Query().Get("page")
	case u.Host == "kaido.to" && u.Path == "/filter":
		return "listing"
	case u.Host == "kaido.to" && u.Path == "/home":
		return "home"
	case u.Host == "kaido.to":
		return "anime-detail"
	case u.Host == "manganow.to" && u.Path == "/filter":
		return "manga-listing"
	case u.Host == "manganow.to":
		return "manga-home"
	case u.Path == "/search":
		return "manga-lookup"
	case strings.Count(strings.Trim(strings.TrimPrefix(u.Path, "/title/"), "/"), "/") == 0:
		return "manga-detail"
	default:
		return "chapter"
	}
}

type site struct {
	mu    sync.Mutex
	pages map[string]string
	fails map[string]error
	calls map[string]int
	urls  []string
}

func newSite() *site {
	s := &site{
		pages: map[string]string{
			"lookup":        lookupPage,
			"servers":       serversPage,
			"player":        playerPage,
			"anime-detail":  animeDetailPage,
			"listing":       listingPage,
			"home":          homePage,
			"manga-lookup":  mangaLookupPage,
			"manga-detail":  mangaDetailPage,
			"manga-home":    mangaHomePage,
			"manga-listing": mangaListingPage,
			"chapter":       chapterPage,
		},
		fails: map[string]error{},
		calls: map[string]int{},
	}

	for page := 1; page <= 3; page++ {
		s.pages["search-"+strconv.Itoa(page)] = searchPage(page, 3)
	}

	return s
}

func (s *site) Fetch(_ context.Context, target fetch.Target) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := route(target)
	s.calls[name]++
	s.urls = append(s.urls, target.URL)

	if err := s.fails[name]; err != nil {
		return "", &fetch.TransportError{URL: target.URL, Status: 503, Err: err}
	}

	return s.pages[name], nil
}

func (s *site) Set(name, html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[name] = html
}

func (s *site) Fail(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[name] = errors.New("upstream unavailable")
}

func (s *site) Calls(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *site) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

type stubMetadata struct {
	calls atomic.Int32
	meta  mangadex.Metadata
	err   error
}

func (m *stubMetadata) Metadata(_ context.Context, _ string) (mangadex.Metadata, error) {
	m.calls.Add(1)
	return m.meta, m.err
}

var roots atomic.Int64

func setup(config Config) (*Service, *site, *stubMetadata) {
	root := filepath.Join("/service", strconv.FormatInt(roots.Add(1), 10))
	now := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	s := newSite()
	meta := &stubMetadata{meta: mangadex.Metadata{
		CoverImageURL: "https://uploads.test/covers/solo.jpg",
		Genres:        []string{"Action", "Fantasy"},
	}}

	pipe := pipeline.New(cache.New(filepath.Join(root, "cache"), cache.WithClock(now)), s)

	var ticks atomic.Int64
	store := history.New(filepath.Join(root, "history"), history.WithClock(func() time.Time {
		return now().Add(time.Duration(ticks.Add(1)) * time.Minute)
	}))

	return New(pipe, store, meta, config), s, meta
}

var (
	alice = mo.Some("alice")
	guest = mo.None[string]()
)

func defaults() Config {
	return Config{AggregateWorkers: 3, SearchWorkers: 10, SaveOnWatch: true}
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	watch := WatchRequest{Slug: "/dandadan-19319", Episode: "ep-3", Title: "Dandadan", Type: "TV"}

	Convey("Given every upstream page is healthy", t, func() {
		svc, site, _ := setup(defaults())

		record, err := svc.Watch(ctx, alice, watch)
		So(err, ShouldBeNil)

		Convey("The episode should be resolved with all three branches", func() {
			So(record.String("iframe_src"), ShouldEqual, "https://megaplay.test/e/1")
			So(record["current_episode_number"], ShouldEqual, 3)
			So(record.String("episode_url"), ShouldEqual, "https://animesugetv.to/watch/dandadan-19319/ep-3")
			So(record.Record("anime_detail").String("title"), ShouldEqual, "Dandadan")
			So(record.Record("video_details").Record("servers_info").Strings("SUB"), ShouldResemble, []string{"Megaplay-1"})
			So(record.IsPartial(), ShouldBeFalse)
		})

		Convey("The watch should be recorded for the user", func() {
			watched, err := svc.History().Watched(alice)
			So(err, ShouldBeNil)
			So(watched, ShouldHaveLength, 1)
			So(watched[0].EpisodeNumber, ShouldEqual, 3)
			So(watched[0].ContentType, ShouldEqual, "TV")
			So(watched[0].Genres, ShouldResemble, []string{"Action", "Comedy"})
			So(watched[0].CoverImageURL, ShouldEqual, "https://kaido.test/dandadan.jpg")
		})

		Convey("A repeated watch should be served from the cache", func() {
			_, err := svc.Watch(ctx, alice, watch)
			So(err, ShouldBeNil)
			So(site.Calls("lookup"), ShouldEqual, 1)
			So(site.Calls("player"), ShouldEqual, 1)
			So(site.Calls("anime-detail"), ShouldEqual, 1)
		})
	})

	Convey("A failing secondary branch should only mark the record partial", t, func() {
		svc, site, _ := setup(defaults())
		site.Fail("servers")

		record, err := svc.Watch(ctx, guest, watch)
		So(err, ShouldBeNil)
		So(record.String("iframe_src"), ShouldEqual, "https://megaplay.test/e/1")
		So(record.IsPartial(), ShouldBeTrue)
		So(record.Strings(source.MissingField), ShouldContain, BranchVideoDetails)
		So(record.Record("video_details").String(source.ErrorField), ShouldNotBeBlank)
	})

	Convey("A missing player should fail the call", t, func() {
		svc, site, _ := setup(defaults())
		site.Set("player", noPlayerPage)

		_, err := svc.Watch(ctx, alice, watch)
		So(errors.Is(err, ErrNoPlayer), ShouldBeTrue)

		watched, _ := svc.History().Watched(alice)
		So(watched, ShouldBeEmpty)
	})

	Convey("An unknown title should come back not found", t, func() {
		svc, site, _ := setup(defaults())
		site.Set("lookup", emptyLookupPage)

		record, err := svc.Watch(ctx, alice, watch)
		So(err, ShouldBeNil)
		So(record.IsNotFound(), ShouldBeTrue)
		So(site.Calls("player"), ShouldEqual, 0)
	})

	Convey("Invalid requests should be rejected before any fetch", t, func() {
		svc, site, _ := setup(defaults())

		bad := watch
		bad.Type = "Cartoon"
		_, err := svc.Watch(ctx, alice, bad)
		So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)

		var invalid *InvalidInputError
		So(errors.As(err, &invalid), ShouldBeTrue)
		So(invalid.Field, ShouldEqual, "anime_type")

		bad = watch
		bad.Title = " "
		_, err = svc.Watch(ctx, alice, bad)
		So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		So(site.URLs(), ShouldBeEmpty)
	})

	Convey("Episode numbers should default to one", t, func() {
		So(EpisodeNumber("ep-12"), ShouldEqual, 12)
		So(EpisodeNumber("7"), ShouldEqual, 7)
		So(EpisodeNumber(""), ShouldEqual, 1)
		So(EpisodeNumber("ep-zero"), ShouldEqual, 1)
	})
}

func TestSwitchEpisode(t *testing.T) {
	ctx := context.Background()

	Convey("Given a user who watched episode 3", t, func() {
		svc, _, _ := setup(defaults())
		_, err := svc.Watch(ctx, alice, WatchRequest{Slug: "dandadan-19319", Episode: "ep-3", Title: "Dandadan", Type: "TV"})
		So(err, ShouldBeNil)

		Convey("Switching to episode 5 should record it with the stored details", func() {
			record, err := svc.SwitchEpisode(ctx, alice, "/watch/dandadan-19319/ep-5", "dandadan")
			So(err, ShouldBeNil)
			So(record.String("iframe_src"), ShouldEqual, "https://megaplay.test/e/1")
			So(record["current_episode_number"], ShouldEqual, 5)

			latest, err := svc.History().LatestWatch(alice, "Dandadan")
			So(err, ShouldBeNil)
			entry, ok := latest.Get()
			So(ok, ShouldBeTrue)
			So(entry.EpisodeNumber, ShouldEqual, 5)
			So(entry.Genres, ShouldResemble, []string{"Action", "Comedy"})
			So(entry.WatchURL, ShouldEqual, "https://animesugetv.to/watch/dandadan-19319/ep-5")
		})

		Convey("A user without history of the title should be refused", func() {
			_, err := svc.SwitchEpisode(ctx, mo.Some("bob"), "/watch/dandadan-19319/ep-5", "Dandadan")
			So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
		})

		Convey("Guests should get the player without history", func() {
			record, err := svc.SwitchEpisode(ctx, guest, "https://animesugetv.to/watch/dandadan-19319/ep-2", "Dandadan")
			So(err, ShouldBeNil)
			So(record["current_episode_number"], ShouldEqual, 2)
		})
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	filters := url.Values{"type[]": {"tv"}}

	Convey("Given a search spanning three pages", t, func() {
		svc, site, _ := setup(defaults())

		record, err := svc.Search(ctx, "  dandadan ", filters)
		So(err, ShouldBeNil)

		Convey("Cards of every page should be merged in page order", func() {
			cards := record.Records("cards")
			So(cards, ShouldHaveLength, 3)
			So(cards[0].String("title"), ShouldEqual, "Dandadan 1")
			So(cards[2].String("title"), ShouldEqual, "Dandadan 3")
			So(record["last_page"], ShouldEqual, 3.0)
			So(record.Records("page_errors"), ShouldBeEmpty)
		})

		Convey("The filters should reach every page", func() {
			for _, u := range site.URLs() {
				So(u, ShouldContainSubstring, "type%5B%5D=tv")
			}
		})

		Convey("A complete result should be cached", func() {
			_, err := svc.Search(ctx, "dandadan", filters)
			So(err, ShouldBeNil)
			So(site.Calls("search-1"), ShouldEqual, 1)
			So(site.Calls("search-2"), ShouldEqual, 1)
		})
	})

	Convey("A failing page should be reported and the result not cached", t, func() {
		svc, site, _ := setup(defaults())
		site.Fail("search-3")

		record, err := svc.Search(ctx, "dandadan", nil)
		So(err, ShouldBeNil)
		So(record.Records("cards"), ShouldHaveLength, 2)

		pageErrors := record.Records("page_errors")
		So(pageErrors, ShouldHaveLength, 1)
		So(pageErrors[0]["page"], ShouldEqual, 3.0)

		_, err = svc.Search(ctx, "dandadan", nil)
		So(err, ShouldBeNil)
		So(site.Calls("search-1"), ShouldEqual, 2)
	})

	Convey("The page cap should bound the pages fetched", t, func() {
		config := defaults()
		config.SearchMaxPages = 2
		svc, site, _ := setup(config)

		record, err := svc.Search(ctx, "dandadan", nil)
		So(err, ShouldBeNil)
		So(record.Records("cards"), ShouldHaveLength, 2)
		So(site.Calls("search-3"), ShouldEqual, 0)
	})

	Convey("A blank title should be invalid", t, func() {
		svc, _, _ := setup(defaults())
		_, err := svc.Search(ctx, "   ", nil)
		So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
	})
}

func TestRecommendations(t *testing.T) {
	ctx := context.Background()

	Convey("Guests should get no recommendations", t, func() {
		svc, site, _ := setup(defaults())
		record, err := svc.Recommendations(ctx, guest)
		So(err, ShouldBeNil)
		So(record.Records("recommendations"), ShouldBeEmpty)
		So(site.URLs(), ShouldBeEmpty)
	})

	Convey("Given a user who watched Dandadan", t, func() {
		svc, site, _ := setup(defaults())
		_, _, err := svc.History().RecordWatch(alice, history.WatchEntry{
			AnimeTitle:    "Dandadan",
			EpisodeNumber: 1,
			ContentType:   "TV",
			Genres:        []string{"Action", "Comedy"},
		})
		So(err, ShouldBeNil)

		record, err := svc.Recommendations(ctx, alice)
		So(err, ShouldBeNil)

		Convey("Watched titles should be left out", func() {
			picks := record.Records("recommendations")
			So(picks, ShouldHaveLength, 1)
			So(picks[0].String("title"), ShouldEqual, "Frieren")
		})

		Convey("The listing should be filtered by the derived taste", func() {
			So(site.URLs(), ShouldHaveLength, 1)
			So(site.URLs()[0], ShouldContainSubstring, "sort=most_watched")
			So(site.URLs()[0], ShouldContainSubstring, "type=2")
		})
	})
}

func TestHome(t *testing.T) {
	Convey("The home page should be parsed and cached", t, func() {
		svc, site, _ := setup(defaults())

		record, err := svc.Home(context.Background())
		So(err, ShouldBeNil)
		So(record.Records("genres"), ShouldHaveLength, 1)

		_, err = svc.Home(context.Background())
		So(err, ShouldBeNil)
		So(site.Calls("home"), ShouldEqual, 1)
	})
}

func TestAnimeDetail(t *testing.T) {
	Convey("Detail pages should be keyed by slug", t, func() {
		svc, site, _ := setup(defaults())

		for _, pathname := range []string{"/dandadan-19319", "dandadan-19319/"} {
			record, err := svc.AnimeDetail(context.Background(), pathname)
			So(err, ShouldBeNil)
			So(record.String("title"), ShouldEqual, "Dandadan")
		}

		So(site.Calls("anime-detail"), ShouldEqual, 1)

		_, err := svc.AnimeDetail(context.Background(), "/")
		So(errors.Is(err, ErrInvalidInput), ShouldBeTrue)
	})
}
