package source

import (
	"net/url"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSites(t *testing.T) {
	Convey("AnimeSugeLookupURL", t, func() {
		u, err := url.Parse(AnimeSugeLookupURL("Dandadan", "TV"))
		So(err, ShouldBeNil)
		So(u.Host, ShouldEqual, "animesugetv.to")
		So(u.Path, ShouldEqual, "/filter")

		q := u.Query()
		So(q.Get("keyword"), ShouldEqual, "dandadan")
		So(q.Get("term_type[]"), ShouldEqual, "TV")
		So(q.Get("sort"), ShouldEqual, "score")
		So(q.Has("country"), ShouldBeTrue)
	})

	Convey("AnimeSugeSearchURL should carry filters and paging", t, func() {
		u, err := url.Parse(AnimeSugeSearchURL("naruto", 3, url.Values{"genre[]": {"action", "drama"}}))
		So(err, ShouldBeNil)
		So(u.Query().Get("page"), ShouldEqual, "3")
		So(u.Query()["genre[]"], ShouldResemble, []string{"action", "drama"})
	})

	Convey("ValidAnimeType", t, func() {
		So(ValidAnimeType("TV"), ShouldBeTrue)
		So(ValidAnimeType("ONA"), ShouldBeTrue)
		So(ValidAnimeType("tv"), ShouldBeFalse)
		So(ValidAnimeType(""), ShouldBeFalse)
	})

	Convey("KaidoURL should tolerate a missing leading slash", t, func() {
		So(KaidoURL("/attack-on-titan-112"), ShouldEqual, "https://kaido.to/attack-on-titan-112")
		So(KaidoURL("attack-on-titan-112"), ShouldEqual, "https://kaido.to/attack-on-titan-112")
	})

	Convey("MangaNowFilterURL should encode the genre codes", t, func() {
		params := url.Values{"sort": {"most-viewed"}, "genres": {"1,17"}}
		So(MangaNowFilterURL(params), ShouldEqual, "https://manganow.to/filter?genres=1%2C17&sort=most-viewed")
		So(MangaNowHomeURL, ShouldEqual, "https://manganow.to/home")
	})

	Convey("EpisodeURL should resolve relative card urls", t, func() {
		So(EpisodeURL("/watch/dandadan-19319", 12), ShouldEqual, "https://animesugetv.to/watch/dandadan-19319/ep-12")
		So(EpisodeURL("https://animesugetv.to/watch/dandadan-19319/", 1), ShouldEqual, "https://animesugetv.to/watch/dandadan-19319/ep-1")
	})

	Convey("Read paths", t, func() {
		path := "10953-en-one-piece/8404558-chapter-1105-the-height-of-folly"
		So(ReadPath(MangaParkReadURL(path)), ShouldEqual, path)
		So(strings.HasPrefix(MangaParkReadURL(path), MangaParkTitlePrefix), ShouldBeTrue)

		manga, chapter := ReadLabels(path)
		So(manga, ShouldEqual, "one piece")
		So(chapter, ShouldEqual, "chapter 1105 the height of folly")

		manga, chapter = ReadLabels("solo/ch1")
		So(manga, ShouldEqual, "solo")
		So(chapter, ShouldEqual, "ch1")

		manga, chapter = ReadLabels("One Piece")
		So(manga, ShouldBeEmpty)
		So(chapter, ShouldBeEmpty)
	})

	Convey("Absolute", t, func() {
		So(Absolute(MangaParkBase, "/title/1-en-x"), ShouldEqual, "https://mangapark.io/title/1-en-x")
		So(Absolute(MangaParkBase, "https://other.site/a"), ShouldEqual, "https://other.site/a")
		So(Absolute(MangaParkBase, ""), ShouldBeEmpty)
	})
}
