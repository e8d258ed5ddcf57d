package playback

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildURL(t *testing.T) {
	Convey("Given a request URL with reserved characters", t, func() {
		target := "https://site/x?id=1&ep=2"
		encoded := "https%3A%2F%2Fsite%2Fx%3Fid%3D1%26ep%3D2"

		Convey("A template ending in = gets the encoded URL appended directly", func() {
			So(BuildURL("https://r.example/jx/?v=", target), ShouldEqual, "https://r.example/jx/?v="+encoded)
		})

		Convey("A template with a query gets an url parameter appended with &", func() {
			So(BuildURL("https://r.example/api?key=k", target), ShouldEqual, "https://r.example/api?key=k&url="+encoded)
			So(BuildURL("https://r.example/api?", target), ShouldEqual, "https://r.example/api?&url="+encoded)
		})

		Convey("A bare template gets an url parameter appended with ?", func() {
			So(BuildURL("https://r.example/api", target), ShouldEqual, "https://r.example/api?url="+encoded)
		})
	})
}

func TestIsNetworkURL(t *testing.T) {
	Convey("IsNetworkURL", t, func() {
		So(IsNetworkURL("https://cdn/a.m3u8"), ShouldBeTrue)
		So(IsNetworkURL("HTTP://cdn/a.mp4"), ShouldBeTrue)
		So(IsNetworkURL("rtmp://live.example/app/stream"), ShouldBeTrue)
		So(IsNetworkURL("rtsp://cam.example/1"), ShouldBeTrue)
		So(IsNetworkURL("//cdn/a.m3u8"), ShouldBeFalse)
		So(IsNetworkURL("ftp://cdn/a.mp4"), ShouldBeFalse)
		So(IsNetworkURL("javascript:alert(1)"), ShouldBeFalse)
		So(IsNetworkURL(""), ShouldBeFalse)
		So(IsNetworkURL("https://"), ShouldBeFalse)
	})
}

func TestNormalizeURL(t *testing.T) {
	Convey("A protocol-relative URL gets the given scheme", t, func() {
		So(NormalizeURL("//host/a.m3u8", "https"), ShouldEqual, "https://host/a.m3u8")
		So(NormalizeURL(" //host/a.m3u8 ", "http"), ShouldEqual, "http://host/a.m3u8")
		So(NormalizeURL("https://host/a.m3u8", "http"), ShouldEqual, "https://host/a.m3u8")
	})
}

func TestRequestResult(t *testing.T) {
	Convey("Given a terminal request", t, func() {
		req := Request{URL: "https://cdn/a.mp4", Headers: map[string]string{"Referer": "https://site/"}}

		Convey("AsResult keeps every field", func() {
			res := req.AsResult()
			So(res.URL, ShouldEqual, req.URL)
			So(res.Headers, ShouldResemble, req.Headers)
			So(res.NeedsResolution, ShouldBeFalse)
			So(res.Playable(), ShouldBeTrue)
		})
	})

	Convey("Given a result that still needs resolution", t, func() {
		prev := Request{URL: "https://site/x", Flag: "qq", Headers: map[string]string{"Cookie": "a=b"}, Hint: "parse:r1"}
		res := Result{URL: "https://layer2/x", NeedsResolution: true}

		Convey("Next carries the flag and falls back to previous headers, dropping the hint", func() {
			next := res.Next(prev)
			So(next.URL, ShouldEqual, "https://layer2/x")
			So(next.NeedsResolution, ShouldBeTrue)
			So(next.Flag, ShouldEqual, "qq")
			So(next.Headers, ShouldResemble, prev.Headers)
			So(next.Hint, ShouldBeEmpty)
		})
	})
}

func TestMergeHeaders(t *testing.T) {
	Convey("Later layers win, case-insensitively", t, func() {
		merged := MergeHeaders(
			map[string]string{"User-Agent": "default", "Accept": "*/*"},
			map[string]string{"user-agent": "ext"},
			map[string]string{"Referer": "https://caller/"},
		)
		So(merged, ShouldResemble, map[string]string{"user-agent": "ext", "Accept": "*/*", "Referer": "https://caller/"})
		So(MergeHeaders(nil, map[string]string{}), ShouldBeNil)
	})
}

func TestErrors(t *testing.T) {
	Convey("NetworkError matches both the sentinel and the cause", t, func() {
		cause := errors.New("connection refused")
		err := NetworkError(cause)
		So(errors.Is(err, ErrNetwork), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(Hard(err), ShouldBeFalse)
		So(Hard(ErrAllResolversFailed), ShouldBeTrue)
	})
}
