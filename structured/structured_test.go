package structured

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reel-cli/reel/network"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/resolver"
	. "github.com/smartystreets/goconvey/convey"
)

func serve(status int, body string, seen *http.Request) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r.Clone(context.Background())
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
}

func TestResolve(t *testing.T) {
	client := network.New(network.Options{Timeout: 5 * time.Second})
	r := New(client, 0)
	req := playback.Request{URL: "https://site/x", NeedsResolution: true}

	Convey("Given a resolver answering with a top-level url", t, func() {
		var seen http.Request
		server := serve(http.StatusOK, `{"url":"https://cdn/a.m3u8","parse":0}`, &seen)
		defer server.Close()

		d := resolver.Descriptor{Name: "r", URL: server.URL + "/api?", Kind: resolver.StructuredJSON}
		result, err := r.Resolve(context.Background(), d, req)

		So(err, ShouldBeNil)
		So(result.URL, ShouldEqual, "https://cdn/a.m3u8")
		So(result.NeedsResolution, ShouldBeFalse)
		So(result.ResolvedBy, ShouldEqual, "r")
		So(result.Format, ShouldEqual, "m3u8")

		Convey("The request URL is encoded into the template", func() {
			So(seen.URL.Query().Get("url"), ShouldEqual, "https://site/x")
		})
	})

	Convey("Headers are layered default, resolver, caller", t, func() {
		var seen http.Request
		server := serve(http.StatusOK, `{"url":"https://cdn/a.mp4"}`, &seen)
		defer server.Close()

		d := resolver.Descriptor{
			Name: "r",
			URL:  server.URL + "/?url=",
			Kind: resolver.StructuredJSON,
			Ext: resolver.ExtConfig{
				Headers:   map[string]string{"X-Token": "ext", "Referer": "https://ext"},
				UserAgent: "ext-agent",
			},
		}
		caller := req
		caller.Headers = map[string]string{"referer": "https://caller"}

		_, err := r.Resolve(context.Background(), d, caller)
		So(err, ShouldBeNil)
		So(seen.Header.Get("X-Token"), ShouldEqual, "ext")
		So(seen.Header.Get("User-Agent"), ShouldEqual, "ext-agent")
		So(seen.Header.Get("Referer"), ShouldEqual, "https://caller")
	})

	Convey("A non-2xx answer is a network error", t, func() {
		server := serve(http.StatusBadGateway, `{}`, nil)
		defer server.Close()

		d := resolver.Descriptor{Name: "r", URL: server.URL, Kind: resolver.StructuredJSON}
		_, err := r.Resolve(context.Background(), d, req)
		So(errors.Is(err, playback.ErrNetwork), ShouldBeTrue)
	})

	Convey("A descriptor without a template is rejected", t, func() {
		_, err := r.Resolve(context.Background(), resolver.Descriptor{Name: "r"}, req)
		So(errors.Is(err, playback.ErrInvalidURL), ShouldBeTrue)
	})
}

func TestDecode(t *testing.T) {
	Convey("Given the known response shapes", t, func() {
		Convey("data.url wins over url", func() {
			result, err := Decode(`{"data":{"url":"https://a/1.m3u8"},"url":"https://b/2.m3u8"}`)
			So(err, ShouldBeNil)
			So(result.URL, ShouldEqual, "https://a/1.m3u8")
		})

		Convey("data may be the url itself", func() {
			result, err := Decode(`{"data":"https://a/1.mp4"}`)
			So(err, ShouldBeNil)
			So(result.URL, ShouldEqual, "https://a/1.mp4")
		})

		Convey("Protocol-relative URLs become https", func() {
			result, err := Decode(`{"url":"//host/a.m3u8"}`)
			So(err, ShouldBeNil)
			So(result.URL, ShouldEqual, "https://host/a.m3u8")
		})
	})

	Convey("parse accepts numbers, booleans and strings", t, func() {
		for body, want := range map[string]bool{
			`{"url":"https://a/p","parse":1}`:            true,
			`{"url":"https://a/p","parse":"1"}`:          true,
			`{"url":"https://a/p","parse":true}`:         true,
			`{"url":"https://a/p","parse":"0"}`:          false,
			`{"url":"https://a/p"}`:                      false,
			`{"data":{"url":"https://a/p","parse":1}}`:   true,
			`{"data":{"url":"https://a/p"},"parse":"0"}`: false,
		} {
			result, err := Decode(body)
			So(err, ShouldBeNil)
			So(result.NeedsResolution, ShouldEqual, want)
		}
	})

	Convey("Headers are collected from the top level and data", t, func() {
		result, err := Decode(`{
			"user-agent": "agent",
			"header": "{\"X-A\":\"1\"}",
			"data": {"url": "https://a/v.m3u8", "referer": "https://ref", "headers": {"X-B": "2"}}
		}`)
		So(err, ShouldBeNil)
		So(result.Headers, ShouldResemble, map[string]string{
			"User-Agent": "agent",
			"X-A":        "1",
			"Referer":    "https://ref",
			"X-B":        "2",
		})
	})

	Convey("Failures are classified", t, func() {
		_, err := Decode(`<html>`)
		So(errors.Is(err, playback.ErrInvalidResponse), ShouldBeTrue)

		_, err = Decode(`{"code":404}`)
		So(errors.Is(err, playback.ErrNoURLInResponse), ShouldBeTrue)

		_, err = Decode(`{"url":"ftp://a/b.mp4"}`)
		So(errors.Is(err, playback.ErrInvalidURL), ShouldBeTrue)
	})
}
