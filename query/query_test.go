package query

import (
	"testing"

	"github.com/gauravRathod674/OtakuRealm/filesystem"
	"github.com/gauravRathod674/OtakuRealm/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	viper.Set(key.SearchSuggestions, true)
}

func TestQuery(t *testing.T) {
	Convey("Given query history", t, func() {
		q1 := "naruto"
		q2 := "bleach"

		Convey("When remembering queries", func() {
			err := Remember(q1, 1)
			So(err, ShouldBeNil)
			err = Remember(q2, 10) // Higher weight
			So(err, ShouldBeNil)

			Convey("Then suggestions should be sorted by rank", func() {
				s := SuggestMany("ble")
				So(len(s), ShouldBeGreaterThanOrEqualTo, 1)
				So(s[0], ShouldEqual, "bleach")
				So(Suggest("nar").MustGet(), ShouldEqual, "naruto")
			})

			Convey("Then a new rank should invalidate memoized suggestions", func() {
				_ = SuggestMany("b")
				So(Remember("boruto", 100), ShouldBeNil)
				So(SuggestMany("b")[0], ShouldEqual, "boruto")
			})

			Convey("It sanitizes input", func() {
				So(sanitize("  NARUTO  "), ShouldEqual, "naruto")
			})
		})

		Convey("Blank queries should be ignored", func() {
			So(Remember("   ", 1), ShouldBeNil)
			So(SuggestMany(""), ShouldNotContain, "")
		})

		Convey("Disabled suggestions should yield nothing", func() {
			viper.Set(key.SearchSuggestions, false)
			defer viper.Set(key.SearchSuggestions, true)

			So(SuggestMany("naruto"), ShouldBeEmpty)
			So(Suggest("naruto").IsAbsent(), ShouldBeTrue)
		})
	})
}
