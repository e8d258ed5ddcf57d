package router

import (
	"strings"
	"testing"

	"github.com/reel-cli/reel/resolver"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func descriptors() []resolver.Descriptor {
	return []resolver.Descriptor{
		{Name: resolver.SuperName, Kind: resolver.SuperResolve},
		{Name: "fast", URL: "https://fast.example/api?url=", Kind: resolver.StructuredJSON, Ext: resolver.ExtConfig{Flags: []string{"qq"}}},
		{Name: "slow", URL: "https://slow.example/?url=", Kind: resolver.BrowserSniff, Ext: resolver.ExtConfig{Flags: []string{"qq", "iqiyi"}}},
		{Name: "other", URL: "https://other.example/jx/?url=", Kind: resolver.BrowserSniff},
		{Name: "json-plain", URL: "https://plain.example/api", Kind: resolver.StructuredJSON},
		{Name: "fed", Kind: resolver.StructuredJSONFederated},
	}
}

func names(ds []resolver.Descriptor) []string {
	return lo.Map(ds, func(d resolver.Descriptor, _ int) string { return d.Name })
}

func TestPartition(t *testing.T) {
	Convey("Given resolvers declaring flags", t, func() {
		r := New(descriptors())

		Convey("The routing table lists resolvers per flag", func() {
			So(r.Routes(), ShouldResemble, map[string][]string{
				"qq":    {"fast", "slow"},
				"iqiyi": {"slow"},
			})
		})

		Convey("A declared flag selects only its resolvers", func() {
			c := r.Partition("qq")
			So(names(c.JSON), ShouldResemble, []string{"fast"})
			So(names(c.Sniff), ShouldResemble, []string{"slow"})

			c = r.Partition("iqiyi")
			So(c.JSON, ShouldBeEmpty)
			So(names(c.Sniff), ShouldResemble, []string{"slow"})
		})

		Convey("An undeclared flag falls back to every resolver", func() {
			c := r.Partition("youku")
			So(names(c.JSON), ShouldResemble, []string{"fast", "json-plain"})
			So(names(c.Sniff), ShouldResemble, []string{"slow", "other"})
		})

		Convey("No flag also falls back to every resolver", func() {
			So(r.Partition("").Empty(), ShouldBeFalse)
		})
	})

	Convey("Given no resolvers", t, func() {
		So(New(nil).Partition("qq").Empty(), ShouldBeTrue)
	})
}

func TestMultiFrameDocument(t *testing.T) {
	Convey("Given a partitioned flag", t, func() {
		r := New(descriptors())

		Convey("Nothing is rendered before partitioning", func() {
			So(r.MultiFrameDocument("youku", "https://v.example/1").IsAbsent(), ShouldBeTrue)
		})

		r.Partition("youku")
		doc, ok := r.MultiFrameDocument("youku", "https://v.example/1").Get()

		Convey("One sandboxed frame is rendered per sniff member", func() {
			So(ok, ShouldBeTrue)
			So(strings.Count(doc, "<iframe sandbox="), ShouldEqual, 2)
			So(doc, ShouldContainSubstring, `src="https://slow.example/?url=https://v.example/1"`)
			So(doc, ShouldContainSubstring, `src="https://other.example/jx/?url=https://v.example/1"`)
		})

		Convey("A flag whose sniff cohort is empty renders nothing", func() {
			json := New([]resolver.Descriptor{{Name: "j", URL: "https://j.example/", Kind: resolver.StructuredJSON}})
			json.Partition("x")
			So(json.MultiFrameDocument("x", "https://v.example/1").IsAbsent(), ShouldBeTrue)
		})
	})
}
