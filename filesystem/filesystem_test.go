package filesystem

import (
	"path/filepath"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			fs := API()
			So(fs, ShouldNotBeNil)
			So(fs.Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			fs := API()
			So(fs, ShouldNotBeNil)
			So(fs.Name(), ShouldEqual, "MemMapFS")
		})
	})
}

func TestWriteAtomic(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		SetMemMapFs()
		path := filepath.Join("/", "records", "anime-detail", "naruto.json")

		Convey("When writing to a path whose parents do not exist", func() {
			err := WriteAtomic(path, []byte(`{"a":1}`), 0644)

			Convey("Then the file should hold the written data", func() {
				So(err, ShouldBeNil)
				So(string(lo.Must(API().ReadFile(path))), ShouldEqual, `{"a":1}`)
			})

			Convey("And overwriting should replace the content without leftovers", func() {
				So(WriteAtomic(path, []byte(`{"a":2}`), 0644), ShouldBeNil)
				So(string(lo.Must(API().ReadFile(path))), ShouldEqual, `{"a":2}`)

				entries := lo.Must(API().ReadDir(filepath.Dir(path)))
				So(entries, ShouldHaveLength, 1)
			})
		})
	})
}
