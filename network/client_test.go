package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/reel-cli/reel/playback"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFetchText(t *testing.T) {
	Convey("Given a resolver endpoint", t, func() {
		var seen http.Header
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Clone()
			switch r.URL.Path {
			case "/ok":
				_, _ = w.Write([]byte(`{"url":"https://cdn/a.m3u8"}`))
			case "/slow":
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			default:
				w.WriteHeader(http.StatusBadGateway)
			}
		}))
		defer srv.Close()

		client := New(Options{UserAgent: "reel-test"})

		Convey("The body is returned as text with default headers", func() {
			body, err := client.FetchText(context.Background(), srv.URL+"/ok", nil, 0)
			So(err, ShouldBeNil)
			So(body, ShouldEqual, `{"url":"https://cdn/a.m3u8"}`)
			So(seen.Get("User-Agent"), ShouldEqual, "reel-test")
		})

		Convey("Per-call headers override the defaults", func() {
			_, err := client.FetchText(context.Background(), srv.URL+"/ok", map[string]string{"User-Agent": "override", "Referer": "https://site/"}, 0)
			So(err, ShouldBeNil)
			So(seen.Get("User-Agent"), ShouldEqual, "override")
			So(seen.Get("Referer"), ShouldEqual, "https://site/")
		})

		Convey("A non-2xx status is a network error", func() {
			_, err := client.FetchText(context.Background(), srv.URL+"/bad", nil, 0)
			So(errors.Is(err, playback.ErrNetwork), ShouldBeTrue)
		})

		Convey("The per-call timeout aborts a slow request", func() {
			start := time.Now()
			_, err := client.FetchText(context.Background(), srv.URL+"/slow", nil, 100*time.Millisecond)
			So(errors.Is(err, playback.ErrNetwork), ShouldBeTrue)
			So(time.Since(start), ShouldBeLessThan, time.Second)
		})

		Convey("A malformed URL is an invalid url error", func() {
			_, err := client.FetchText(context.Background(), "http://[::1", nil, 0)
			So(errors.Is(err, playback.ErrInvalidURL), ShouldBeTrue)
		})
	})
}

func TestFingerprintTransport(t *testing.T) {
	Convey("Plain http requests bypass the fingerprinting dialer", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("plain"))
		}))
		defer srv.Close()

		client := New(Options{TLSFingerprint: true})
		body, err := client.FetchText(context.Background(), srv.URL, nil, time.Second)
		So(err, ShouldBeNil)
		So(body, ShouldEqual, "plain")
	})
}
