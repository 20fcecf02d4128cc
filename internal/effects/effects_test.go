package effects

import (
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSettings(t *testing.T) {
	Convey("Given effect settings", t, func() {
		Convey("Zero settings are inactive", func() {
			So(Settings{}.Active(), ShouldBeFalse)
			So(Settings{Equalizer: None, Environment: None, Position: None}.Chain(), ShouldEqual, "")
		})

		Convey("A flat position or outdoor environment changes nothing", func() {
			So(Settings{Position: "front"}.Active(), ShouldBeFalse)
			So(Settings{Environment: "outdoor"}.Active(), ShouldBeFalse)
		})

		Convey("Denoise comes first and loudnorm last", func() {
			chain := Settings{Denoise: true, Equalizer: "bass-boost", Loudnorm: true}.Chain()
			parts := strings.Split(chain, ",")
			So(parts[0], ShouldStartWith, "afftdn")
			So(parts[len(parts)-1], ShouldEqual, "loudnorm")
		})

		Convey("The equalizer emits one filter per non-flat band", func() {
			So(equalizer("bass-boost"), ShouldHaveLength, 4)
			So(equalizer("classical"), ShouldHaveLength, 10)
			So(equalizer(None), ShouldBeEmpty)
			So(equalizer("bass-boost")[0], ShouldEqual, "equalizer=f=25:width_type=h:width=12:g=6")
		})

		Convey("Environments become an echo scaled to the room", func() {
			So(environment("small-room"), ShouldEqual, "aecho=0.8:0.9:23:0.80")
			So(environment("studio"), ShouldEqual, "aecho=0.8:0.9:27:0.20")
			So(environment("bogus"), ShouldEqual, "")
		})

		Convey("Left and right positions delay the far ear", func() {
			So(Settings{Position: "left"}.Chain(), ShouldContainSubstring, "adelay=0|22S")
			So(Settings{Position: "right"}.Chain(), ShouldContainSubstring, "adelay=22S|0")
		})

		Convey("Validate rejects unknown presets", func() {
			So(Settings{}.Validate(), ShouldBeNil)
			So(Settings{Equalizer: "rock", Environment: "atrium", Position: "surround"}.Validate(), ShouldBeNil)

			err := Settings{Equalizer: "polka"}.Validate()
			So(errors.Is(err, ErrUnknownPreset), ShouldBeTrue)
			So(errors.Is(Settings{Position: "sideways"}.Validate(), ErrUnknownPreset), ShouldBeTrue)
		})

		Convey("Preset lists are sorted and include none", func() {
			So(EqualizerPresets(), ShouldContain, None)
			So(EqualizerPresets(), ShouldHaveLength, 26)
			So(EnvironmentPresets()[0], ShouldEqual, "atrium")
			So(PositionPresets(), ShouldHaveLength, 8)
		})
	})
}
