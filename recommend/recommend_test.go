package recommend

import (
	"testing"

	"github.com/gauravRathod674/OtakuRealm/source"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDerive(t *testing.T) {
	Convey("Given a watch history", t, func() {
		entries := []Entry{
			{Title: "Frieren", ContentType: "TV", Genres: []string{"Adventure", "Fantasy", "Drama"}},
			{Title: "Your Name", ContentType: "Movie", Genres: []string{"Romance", "Drama", "Supernatural"}},
			{Title: "Spy x Family", ContentType: "TV", Genres: []string{"Comedy", "Action"}},
			{Title: "Cyberpunk", ContentType: "ONA", Genres: []string{"Sci‑Fi", "Action", "Unknown Genre"}},
		}

		profile := Derive(entries)

		Convey("The most watched genres should win, ties by first appearance", func() {
			So(profile.Genres, ShouldResemble, []string{"drama", "action", "adventure"})
			So(profile.GenreCodes, ShouldResemble, []string{"8", "1", "2"})
		})

		Convey("The most watched type should be picked", func() {
			So(profile.Type, ShouldEqual, "tv")
			So(profile.TypeCode, ShouldEqual, "2")
		})

		Convey("The listing filter should carry both", func() {
			params := profile.Params()
			So(params.Get("type"), ShouldEqual, "2")
			So(params.Get("sort"), ShouldEqual, "most_watched")
			So(params.Get("genres"), ShouldEqual, "8,1,2")
		})
	})

	Convey("An empty history should default to TV without genres", t, func() {
		profile := Derive(nil)
		So(profile.Genres, ShouldBeEmpty)
		So(profile.TypeCode, ShouldEqual, DefaultTypeCode)
		So(profile.Params().Has("genres"), ShouldBeFalse)
	})

	Convey("Unknown genres among the top three should be dropped from the codes", t, func() {
		profile := Derive([]Entry{{Genres: []string{"Cooking", "Mecha"}, ContentType: "Documentary"}})
		So(profile.Genres, ShouldResemble, []string{"cooking", "mecha"})
		So(profile.GenreCodes, ShouldResemble, []string{"18"})
		So(profile.TypeCode, ShouldEqual, DefaultTypeCode)
	})
}

func TestCodes(t *testing.T) {
	Convey("Both hyphen spellings of sci-fi should map", t, func() {
		for _, name := range []string{"Sci-Fi", "sci‑fi", " SCI-FI "} {
			code, ok := GenreCode(name)
			So(ok, ShouldBeTrue)
			So(code, ShouldEqual, "24")
		}

		code, ok := TypeCode("Special")
		So(ok, ShouldBeTrue)
		So(code, ShouldEqual, "5")
	})
}

func TestPick(t *testing.T) {
	Convey("Given more cards than the limit", t, func() {
		var cards []source.Record
		for _, title := range []string{"Frieren", "A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M"} {
			cards = append(cards, source.Record{"title": title})
		}

		picked := Pick(cards, []string{"frieren", "B"})

		Convey("Watched titles should be excluded and the rest capped", func() {
			So(picked, ShouldHaveLength, Limit)
			So(picked[0].String("title"), ShouldEqual, "A")
			So(picked[1].String("title"), ShouldEqual, "C")
		})
	})
}

func TestDeriveManga(t *testing.T) {
	Convey("Given a read history", t, func() {
		profile := DeriveManga([]Entry{
			{Title: "Berserk", Genres: []string{"Action", "Seinen", "Horror"}},
			{Title: "Vagabond", Genres: []string{"Action", "Seinen", "Historical"}},
			{Title: "Monster", Genres: []string{"Mystery", "Seinen"}},
		})

		Convey("The three most read genres should map to manga codes", func() {
			So(profile.Genres, ShouldResemble, []string{"action", "seinen", "horror"})
			So(profile.GenreCodes, ShouldResemble, []string{"1", "25", "21"})
			So(profile.Empty(), ShouldBeFalse)
		})

		Convey("The listing should be sorted by views", func() {
			params := profile.Params()
			So(params.Get("sort"), ShouldEqual, "most-viewed")
			So(params.Get("genres"), ShouldEqual, "1,25,21")
			So(params.Has("type"), ShouldBeFalse)
		})
	})

	Convey("Genres without a manga code should leave the profile empty", t, func() {
		profile := DeriveManga([]Entry{{Genres: []string{"Kids", "Game"}}})
		So(profile.Genres, ShouldResemble, []string{"kids", "game"})
		So(profile.Empty(), ShouldBeTrue)
		So(DeriveManga(nil).Empty(), ShouldBeTrue)
	})

	Convey("Manga codes differ from the anime ones", t, func() {
		code, _ := MangaGenreCode("Sci‑Fi")
		So(code, ShouldEqual, "24")
		code, _ = MangaGenreCode("Drama")
		So(code, ShouldEqual, "10")
	})
}
