// Package effects turns the audio effect settings into an FFmpeg filter chain applied to the
// extracted audio track before playback.
package effects

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/GoldenFealla/framesync/internal/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

var ErrUnknownPreset = errors.New("effects: unknown preset")

// Settings selects the effects applied to an item's audio track.
type Settings struct {
	Equalizer   string
	Denoise     bool
	Environment string
	Position    string
	Loudnorm    bool
}

// FromConfig reads the effects.* keys.
func FromConfig() Settings {
	return Settings{
		Equalizer:   viper.GetString(key.EffectsEqualizer),
		Denoise:     viper.GetBool(key.EffectsDenoise),
		Environment: viper.GetString(key.EffectsEnvironment),
		Position:    viper.GetString(key.EffectsPosition),
		Loudnorm:    viper.GetBool(key.EffectsLoudnorm),
	}
}

func (s Settings) normalized() Settings {
	s.Equalizer = lo.CoalesceOrEmpty(s.Equalizer, None)
	s.Environment = lo.CoalesceOrEmpty(s.Environment, None)
	s.Position = lo.CoalesceOrEmpty(s.Position, None)
	return s
}

func (s Settings) Validate() error {
	s = s.normalized()

	if _, ok := equalizerPresets[s.Equalizer]; !ok {
		return fmt.Errorf("%w: equalizer %q", ErrUnknownPreset, s.Equalizer)
	}
	if _, ok := environmentPresets[s.Environment]; !ok {
		return fmt.Errorf("%w: environment %q", ErrUnknownPreset, s.Environment)
	}
	if _, ok := positionPresets[s.Position]; !ok {
		return fmt.Errorf("%w: position %q", ErrUnknownPreset, s.Position)
	}
	return nil
}

// Active reports whether any effect would change the signal.
func (s Settings) Active() bool {
	return s.Chain() != ""
}

// Chain is the FFmpeg filter description, in order denoise, equalizer, environment,
// position, loudness normalization. Unknown presets are ignored.
func (s Settings) Chain() string {
	s = s.normalized()

	var filters []string
	if s.Denoise {
		filters = append(filters, "afftdn=nr=10:nf=-40")
	}
	filters = append(filters, equalizer(s.Equalizer)...)
	if f := environment(s.Environment); f != "" {
		filters = append(filters, f)
	}
	filters = append(filters, position(s.Position)...)
	if s.Loudnorm {
		filters = append(filters, "loudnorm")
	}

	return strings.Join(filters, ",")
}

func (s Settings) String() string {
	s = s.normalized()
	return fmt.Sprintf("eq=%s denoise=%t environment=%s position=%s loudnorm=%t",
		s.Equalizer, s.Denoise, s.Environment, s.Position, s.Loudnorm)
}

func equalizer(name string) []string {
	gains, ok := equalizerPresets[name]
	if !ok {
		return nil
	}

	var out []string
	for i, g := range gains {
		if math.Abs(g) < 0.1 {
			continue
		}
		b := Bands[i]
		center := math.Sqrt(b.Low * b.High)
		out = append(out, fmt.Sprintf("equalizer=f=%.0f:width_type=h:width=%.0f:g=%g", center, b.High-b.Low, g))
	}
	return out
}

const speedOfSound = 343.0

// environment approximates a room's reverb with a single echo whose delay is the round trip
// across the room's mean dimension and whose decay is what the walls do not absorb.
func environment(name string) string {
	r, ok := environmentPresets[name]
	if !ok || r.absorption == 0 {
		return ""
	}

	mean := (r.dims[0] + r.dims[1] + r.dims[2]) / 3
	delay := math.Max(1, math.Round(2*mean/speedOfSound*1000))
	decay := math.Min(0.9, 1-r.absorption)
	return fmt.Sprintf("aecho=0.8:0.9:%.0f:%.2f", delay, decay)
}

// 0.5 ms interaural delay at 44.1 kHz.
const interauralDelay = 22

func position(name string) []string {
	switch name {
	case "left":
		return []string{"pan=stereo|c0=c0|c1=0.6*c1", fmt.Sprintf("adelay=0|%dS", interauralDelay)}
	case "right":
		return []string{"pan=stereo|c0=0.6*c0|c1=c1", fmt.Sprintf("adelay=%dS|0", interauralDelay)}
	case "back":
		return []string{"lowpass=f=6000"}
	case "above":
		return []string{"highshelf=f=6000:g=3"}
	case "below":
		return []string{"lowshelf=f=200:g=3"}
	case "surround":
		return []string{"apulsator=hz=0.2"}
	default:
		return nil
	}
}

// EqualizerPresets lists the equalizer preset names, sorted.
func EqualizerPresets() []string {
	return sortedKeys(equalizerPresets)
}

// EnvironmentPresets lists the environment preset names, sorted.
func EnvironmentPresets() []string {
	return sortedKeys(environmentPresets)
}

// PositionPresets lists the position preset names, sorted.
func PositionPresets() []string {
	return sortedKeys(positionPresets)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
