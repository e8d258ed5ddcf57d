package config

import (
	"testing"

	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Given no config file", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Every field has its default", func() {
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetInt(key.SniffTimeout), ShouldEqual, 20)
			So(viper.GetInt(key.NetworkTimeout), ShouldEqual, 15)
			So(viper.GetBool(key.SniffEnabled), ShouldBeTrue)
		})

		Convey("The environment overrides a default", func() {
			t.Setenv("REEL_SNIFF_TIMEOUT", "7")
			So(viper.GetInt(key.SniffTimeout), ShouldEqual, 7)
		})
	})

	Convey("Every registered key is exposed to the environment once", t, func() {
		So(len(EnvExposed), ShouldEqual, len(Default))
		So(EnvKeyReplacer.Replace("sniff.browser_bin"), ShouldEqual, "sniff_browser_bin")
		So(Default[key.SniffTimeout].Env(), ShouldEqual, "REEL_SNIFF_TIMEOUT")
	})
}

func TestFieldParse(t *testing.T) {
	Convey("Given typed fields", t, func() {
		Convey("Integers parse or fail with the key in the message", func() {
			v, err := Default[key.SniffTimeout].Parse([]string{"30"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 30)

			_, err = Default[key.SniffTimeout].Parse([]string{"soon"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, key.SniffTimeout)
		})

		Convey("Booleans accept strconv forms", func() {
			v, err := Default[key.SniffHeadless].Parse([]string{"0"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, false)
		})

		Convey("Lists take every value", func() {
			v, err := Default[key.RulesAds].Parse([]string{"ads.example", "track.example"})
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []string{"ads.example", "track.example"})
		})

		Convey("Scalars refuse several values", func() {
			_, err := Default[key.ResolversDefault].Parse([]string{"a", "b"})
			So(err, ShouldNotBeNil)
		})

		Convey("Type names the default's Go type", func() {
			So(Default[key.RulesAds].Type(), ShouldEqual, "[]string")
			So(Default[key.LogsLevel].Type(), ShouldEqual, "string")
		})
	})
}
