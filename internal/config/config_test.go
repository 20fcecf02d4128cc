package config

import (
	"testing"

	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		Convey("Should initialize without a config file", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should populate defaults", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetInt(key.PlaybackEvictionMargin), ShouldEqual, 90)
			So(viper.GetDuration(key.PlaybackSeekTimeout).Seconds(), ShouldEqual, 10)
		})

		Convey("Env names should be prefixed and underscored", func() {
			So(Default[key.PlaybackSeekTimeout].Env(), ShouldEqual, "FRAMESYNC_PLAYBACK_SEEK_TIMEOUT")
		})

		Convey("Workers should never be zero", func() {
			_ = Setup()
			So(Workers(), ShouldBeGreaterThan, 0)
			viper.Set(key.ProcessingWorkers, 3)
			defer viper.Set(key.ProcessingWorkers, 0)
			So(Workers(), ShouldEqual, 3)
		})

		Convey("Keys should be sorted", func() {
			keys := Keys()
			So(len(keys), ShouldEqual, len(Default))
			for i := 1; i < len(keys); i++ {
				So(keys[i-1] < keys[i], ShouldBeTrue)
			}
		})
	})
}
