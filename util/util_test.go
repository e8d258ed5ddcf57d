package util

import (
	"testing"

	"github.com/reel-cli/reel/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "resolver", "resolvers"), ShouldEqual, "1 resolver")
		So(Quantify(0, "resolver", "resolvers"), ShouldEqual, "0 resolvers")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("cache"), ShouldEqual, "Cache")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a directory with files", t, func() {
		fs := filesystem.API()
		So(fs.MkdirAll("/tmp/reel/cache", 0755), ShouldBeNil)
		f, err := fs.Create("/tmp/reel/cache/resolvers.json")
		So(err, ShouldBeNil)
		So(f.Close(), ShouldBeNil)

		Convey("Delete removes it recursively", func() {
			So(Delete("/tmp/reel"), ShouldBeNil)
			exists, _ := filesystem.API().Exists("/tmp/reel")
			So(exists, ShouldBeFalse)
		})

		Convey("Deleting a missing path fails", func() {
			So(Delete("/tmp/missing"), ShouldNotBeNil)
		})
	})
}

func TestParseHeaders(t *testing.T) {
	Convey("Header pairs accept both separators", t, func() {
		headers, err := ParseHeaders([]string{"Referer: https://site/", "user-agent=agent"})
		So(err, ShouldBeNil)
		So(headers, ShouldResemble, map[string]string{"Referer": "https://site/", "user-agent": "agent"})
	})

	Convey("A pair without a separator is rejected", t, func() {
		_, err := ParseHeaders([]string{"Referer"})
		So(err, ShouldNotBeNil)
	})
}
