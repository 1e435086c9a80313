package source

import (
	"net/url"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKey(t *testing.T) {
	Convey("Semantically equal inputs should give equal keys", t, func() {
		So(NewKey(KindAnimeLookup, "One Piece", "TV"), ShouldEqual, NewKey(KindAnimeLookup, "  one   piece ", "tv"))

		a := NewKey(KindSearchResults, "naruto").WithFilters(url.Values{
			"genre[]": {"action", "comedy"},
			"sort":    {"score"},
		})
		b := NewKey(KindSearchResults, "Naruto").WithFilters(url.Values{
			"sort":    {"score"},
			"genre[]": {"comedy", "action", ""},
			"status":  {""},
		})
		So(a, ShouldEqual, b)
	})

	Convey("Different inputs should give different keys", t, func() {
		keys := []Key{
			NewKey(KindAnimeLookup, "one piece", "TV"),
			NewKey(KindAnimeLookup, "one piece", "Movie"),
			NewKey(KindAnimeLookup, "one", "piece TV"),
			NewKey(KindAnimeLookup, "one/piece", "TV"),
			NewKey(KindMangaLookup, "one piece"),
			NewKey(KindSearchResults, "one piece"),
			NewKey(KindSearchResults, "one piece").WithFilters(url.Values{"sort": {"score"}}),
			NewKey(KindSearchResults, "one piece").WithFilters(url.Values{"sort": {"recently_added"}}),
			NewKey(KindVideoServers, "https://animesugetv.to/watch/one-piece-100/ep-1"),
			NewKey(KindVideoServers, "https://animesugetv.to/watch/one-piece-100/ep-10"),
		}

		seen := map[Key]bool{}
		for _, k := range keys {
			So(seen[k], ShouldBeFalse)
			seen[k] = true
		}
	})

	Convey("Exact keys should keep the case of URLs and paths", t, func() {
		So(NewExactKey(KindVideoServers, "https://animesugetv.to/watch/One-Piece-100/ep-1"),
			ShouldNotEqual, NewExactKey(KindVideoServers, "https://animesugetv.to/watch/one-piece-100/ep-1"))
		So(NewExactKey(KindReadImages, " 10953-en-one-piece/c1 "), ShouldEqual, NewExactKey(KindReadImages, "10953-en-one-piece/c1"))
		So(NewExactKey(KindRecommendations, "Alice"), ShouldNotEqual, NewExactKey(KindRecommendations, "alice"))
		So(NewExactKey(KindAnimeDetail, "x").Kind(), ShouldEqual, KindAnimeDetail)
	})

	Convey("Empty filters should not change the key", t, func() {
		k := NewKey(KindSearchResults, "bleach")
		So(k.WithFilters(nil), ShouldEqual, k)
		So(k.WithFilters(url.Values{"type": {" "}}), ShouldEqual, k)
	})

	Convey("Kind should return the prefix", t, func() {
		So(NewKey(KindIframeSource, "x", "sub").Kind(), ShouldEqual, KindIframeSource)
		So(NewKey(KindHome).Kind(), ShouldEqual, KindHome)
		So(NewKey(KindHome).WithFilters(url.Values{"a": {"b"}}).Kind(), ShouldEqual, KindHome)
	})

	Convey("A slash inside a part should be escaped", t, func() {
		So(NewKey(KindReadImages, "10953-en-one-piece/8404558-chapter-1105").String(),
			ShouldEqual, "read-images/10953-en-one-piece%2F8404558-chapter-1105")
	})
}
