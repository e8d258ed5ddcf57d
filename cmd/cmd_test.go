package cmd

import (
	"errors"
	"testing"

	"github.com/reel-cli/reel/config"
	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/playback"
	"github.com/reel-cli/reel/resolver"
	"github.com/reel-cli/reel/where"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestLookupResolver(t *testing.T) {
	Convey("Given a configuration with two resolvers", t, func() {
		snapshot := lo.Must(resolver.Parse([]byte(`{"parses":[
			{"name":"jx-fast","type":1,"url":"https://jx.example/api?url="},
			{"name":"sniffer","type":0,"url":"https://sn.example/?v="}
		]}`)))

		Convey("An exact name is found", func() {
			d, err := lookupResolver(snapshot, "sniffer")
			So(err, ShouldBeNil)
			So(d.Kind, ShouldEqual, resolver.BrowserSniff)
		})

		Convey("A partial name suggests the closest resolver", func() {
			_, err := lookupResolver(snapshot, "fast")
			So(errors.Is(err, playback.ErrNoResolverAvailable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "jx-fast")
		})

		Convey("An unrelated name has no suggestion", func() {
			_, err := lookupResolver(snapshot, "zzz")
			So(errors.Is(err, playback.ErrNoResolverAvailable), ShouldBeTrue)
			So(err.Error(), ShouldNotContainSubstring, "did you mean")
		})
	})
}

func TestErrUnknownKey(t *testing.T) {
	Convey("A misspelled key suggests the registered one", t, func() {
		So(errUnknownKey("sniff.timout").Error(), ShouldContainSubstring, key.SniffTimeout)
	})
}

func TestEnvName(t *testing.T) {
	Convey("Environment names follow the config fields", t, func() {
		for k, field := range config.Default {
			So(envName(k), ShouldEqual, field.Env())
		}
		So(envName(where.EnvConfigPath), ShouldEqual, where.EnvConfigPath)
	})
}
