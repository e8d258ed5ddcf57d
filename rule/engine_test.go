package rule

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIsMedia(t *testing.T) {
	Convey("Given an engine with built-in rules only", t, func() {
		e := New(nil)

		Convey("Known media extensions are media", func() {
			So(e.IsMedia("https://cdn.example/path/a.m3u8", ""), ShouldBeTrue)
			So(e.IsMedia("https://cdn.example/path/a.mp4?sign=1", ""), ShouldBeTrue)
			So(e.IsMedia("https://cdn.example/seg/00001.ts", ""), ShouldBeTrue)
			So(e.IsMedia("https://cdn.example/get?file=movie.flv", ""), ShouldBeTrue)
		})

		Convey("Curated stream shapes are media", func() {
			So(e.IsMedia("https://v3-dy.example.com/abc/video/tos/cn/tos-cn-ve-15/xyz/", ""), ShouldBeTrue)
			So(e.IsMedia("https://rr1.googlevideo.com/videoplayback?expire=1", ""), ShouldBeTrue)
			So(e.IsMedia("https://cdn.example/stream?id=9&mime=video%2Fmp4", ""), ShouldBeTrue)
		})

		Convey("Path-shape heuristics are media", func() {
			So(e.IsMedia("https://cdn.example/vod/abcdef", ""), ShouldBeTrue)
			So(e.IsMedia("https://cdn.example/live/channel1", ""), ShouldBeTrue)
			So(e.IsMedia("https://cdn.example/video/manifest", ""), ShouldBeTrue)
		})

		Convey("The exclusion list wins before any media check", func() {
			So(e.IsMedia("https://cdn.example/player.js", ""), ShouldBeFalse)
			So(e.IsMedia("https://cdn.example/vod/poster.jpg", ""), ShouldBeFalse)
			So(e.IsMedia("https://cdn.example/live/index.html", ""), ShouldBeFalse)
			So(e.IsMedia("https://jx.example/?url=https://cdn.example/a.m3u8", ""), ShouldBeFalse)
			So(e.IsMedia("https://cdn.example/api/config.json", ""), ShouldBeFalse)
		})

		Convey("Ordinary pages are not media", func() {
			So(e.IsMedia("https://www.example.com/watch/123", ""), ShouldBeFalse)
			So(e.IsMedia("", ""), ShouldBeFalse)
		})
	})
}

func TestHostRules(t *testing.T) {
	Convey("Given a host rule set with groups [[a],[b,c]]", t, func() {
		table := NewTable([]HostRuleSet{{
			Hosts: []string{"h.example"},
			Match: [][]string{{"token-a"}, {"token-b", "token-c"}},
		}}, nil)
		e := New(table)
		origin := "https://h.example/play/1"

		Convey("A URL matching only a is media", func() {
			So(e.IsMedia("https://stream.example/x?k=token-a", origin), ShouldBeTrue)
		})

		Convey("A URL matching both b and c is media", func() {
			So(e.IsMedia("https://stream.example/x?k=token-b&z=token-c", origin), ShouldBeTrue)
		})

		Convey("A URL matching only b is not media", func() {
			So(e.IsMedia("https://stream.example/x?k=token-b", origin), ShouldBeFalse)
		})

		Convey("The rules do not apply to another origin", func() {
			So(e.IsMedia("https://stream.example/x?k=token-a", "https://other.example/"), ShouldBeFalse)
		})

		Convey("Without an origin the URL's own host is used", func() {
			So(e.IsMedia("https://h.example/x?k=token-a", ""), ShouldBeTrue)
		})
	})

	Convey("Given exact and wildcard rule sets", t, func() {
		table := NewTable([]HostRuleSet{
			{Hosts: []string{"h.example"}, Match: [][]string{{"exact-only"}}, Script: "play()"},
			{Hosts: []string{Wildcard}, Match: [][]string{{"everywhere"}}, Filter: [][]string{{"adslot"}}, Script: "wild()"},
			{Hosts: []string{"www.H.example"}, Regex: []string{`/getplay/\d+`}},
		}, nil)
		e := New(table)

		Convey("Exact host rules match", func() {
			So(e.IsMedia("https://s.example/exact-only", "https://h.example/"), ShouldBeTrue)
		})

		Convey("Wildcard rules are the fallback for every host", func() {
			So(e.IsMedia("https://s.example/everywhere", "https://h.example/"), ShouldBeTrue)
			So(e.IsMedia("https://s.example/everywhere", "https://z.example/"), ShouldBeTrue)
		})

		Convey("Rule sets for the same host merge and regexes mark media", func() {
			So(e.IsMedia("https://s.example/getplay/42", "https://h.example/"), ShouldBeTrue)
		})

		Convey("Scripts come from the exact host first", func() {
			So(e.Script("https://h.example/x"), ShouldEqual, "play()")
			So(e.Script("https://z.example/x"), ShouldEqual, "wild()")
		})

		Convey("Filter groups suppress matching URLs", func() {
			So(e.ShouldFilter("https://s.example/adslot/a.mp4", "https://z.example/"), ShouldBeTrue)
			So(e.ShouldFilter("https://s.example/movie/a.mp4", "https://z.example/"), ShouldBeFalse)
		})

		Convey("An uncompilable pattern is matched literally", func() {
			lit := New(NewTable([]HostRuleSet{{Hosts: []string{"*"}, Match: [][]string{{"play(("}}}}, nil))
			So(lit.IsMedia("https://s.example/play((1", ""), ShouldBeTrue)
		})
	})
}

func TestHostRulesStayPerHost(t *testing.T) {
	Convey("Given a shared set with a blank group, then one set per host", t, func() {
		table := NewTable([]HostRuleSet{
			{Hosts: []string{"h1.com", "h2.com"}, Match: [][]string{{"aaa"}, {}, {"ccc"}}, Filter: [][]string{{"f-shared"}, {""}}},
			{Hosts: []string{"h1.com"}, Match: [][]string{{"only-h1"}}, Filter: [][]string{{"f-h1"}}, Regex: []string{"re-h1"}},
			{Hosts: []string{"h2.com"}, Match: [][]string{{"only-h2"}}, Filter: [][]string{{"f-h2"}}, Regex: []string{"re-h2"}},
		}, nil)
		e := New(table)
		h1, h2 := "https://h1.com/play", "https://h2.com/play"

		Convey("Each host keeps its own match group", func() {
			So(e.IsMedia("https://s.example/v/only-h1", h1), ShouldBeTrue)
			So(e.IsMedia("https://s.example/v/only-h2", h2), ShouldBeTrue)
		})

		Convey("No host inherits another host's groups", func() {
			So(e.IsMedia("https://s.example/v/only-h2", h1), ShouldBeFalse)
			So(e.IsMedia("https://s.example/v/only-h1", h2), ShouldBeFalse)
			So(e.IsMedia("https://s.example/v/re-h2", h1), ShouldBeFalse)
			So(e.ShouldFilter("https://s.example/v/f-h2", h1), ShouldBeFalse)
			So(e.ShouldFilter("https://s.example/v/f-h1", h1), ShouldBeTrue)
		})

		Convey("Shared groups still apply to both hosts", func() {
			So(e.IsMedia("https://s.example/v/ccc", h1), ShouldBeTrue)
			So(e.IsMedia("https://s.example/v/ccc", h2), ShouldBeTrue)
			So(e.ShouldFilter("https://s.example/v/f-shared", h2), ShouldBeTrue)
		})
	})
}

func TestShouldFilter(t *testing.T) {
	Convey("Given configured ad hosts", t, func() {
		e := New(NewTable(nil, []string{"Ads.Example.NET"}))

		Convey("Built-in analytics hosts and their subdomains are filtered", func() {
			So(e.ShouldFilter("https://www.google-analytics.com/collect?v=1", ""), ShouldBeTrue)
			So(e.ShouldFilter("https://stats.g.doubleclick.net/a.mp4", ""), ShouldBeTrue)
		})

		Convey("Configured hosts are filtered case-insensitively", func() {
			So(e.ShouldFilter("https://cdn.ads.example.net/pre-roll.mp4", ""), ShouldBeTrue)
		})

		Convey("A media-shaped tracker is both media and filtered", func() {
			c := e.Classify("https://hm.baidu.com/hm.gif/x.mp4", "")
			So(c.IsMedia, ShouldBeTrue)
			So(c.ShouldFilter, ShouldBeTrue)
		})

		Convey("Ordinary CDNs are not filtered", func() {
			So(e.ShouldFilter("https://cdn.example/a.m3u8", ""), ShouldBeFalse)
		})
	})
}

func TestFormat(t *testing.T) {
	Convey("Format", t, func() {
		So(Format("https://cdn/a.m3u8?x=1").MustGet(), ShouldEqual, "m3u8")
		So(Format("https://cdn/a.MP4").MustGet(), ShouldEqual, "mp4")
		So(Format("https://cdn/a.flv").MustGet(), ShouldEqual, "flv")
		So(Format("https://cdn/seg/1.ts").MustGet(), ShouldEqual, "ts")
		So(Format("https://cdn/a.mpd").MustGet(), ShouldEqual, "mpd")
		So(Format("https://cdn/watch?id=1").IsAbsent(), ShouldBeTrue)
	})
}

func TestPurity(t *testing.T) {
	Convey("Identical calls on identical inputs always agree", t, func() {
		e := New(NewTable([]HostRuleSet{{Hosts: []string{"*"}, Match: [][]string{{"getvideo"}}}}, nil))
		inputs := []string{
			"https://cdn/a.m3u8",
			"https://cdn/getvideo?id=1",
			"https://cdn/app.js",
			"https://www.google-analytics.com/a.mp4",
		}

		for _, in := range inputs {
			first := e.Classify(in, "https://site/")
			for i := 0; i < 5; i++ {
				So(e.Classify(in, "https://site/"), ShouldResemble, first)
			}
		}
	})
}
