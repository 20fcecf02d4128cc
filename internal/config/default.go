package config

import (
	"runtime"
	"sort"
	"strings"

	"github.com/GoldenFealla/framesync/internal/key"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/viper"
)

// Field is a registered configuration key with its default value.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env returns the environment variable that overrides the field.
func (f Field) Env() string {
	return strings.ToUpper(Name + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Default holds every known field by key.
var Default = make(map[string]Field)

// EnvExposed lists keys bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlaybackEvictionMargin, 90, "Frames kept behind the displayed frame before eviction")
	register(key.PlaybackBufferSize, 120, "Capacity of the raw frame intake queue")
	register(key.PlaybackLookahead, 240, "How many frames decode may run ahead of the displayed frame")
	register(key.PlaybackTickInterval, "10ms", "Presentation loop period")
	register(key.PlaybackSeekTimeout, "10s", "How long a seek waits for its target frame")
	register(key.PlaybackJoinTimeout, "500ms", "How long shutdown waits for decode and processing goroutines")
	register(key.PlaybackAdvanceDelay, "100ms", "Delay before skipping an item that failed to load")
	register(key.ProcessingWorkers, 0, "Frame processing workers, 0 uses the host CPU count")
	register(key.TranscodeBinary, "ffmpeg", "Transcoding utility used to normalise frame rate")
	register(key.TranscodeMaxFPS, 25.0, "Items above this frame rate are normalised before playback")
	register(key.TranscodeTargetFPS, 25.0, "Frame rate of the normalised copy")
	register(key.TranscodeTimeout, "30m", "Upper bound for one normalisation run")
	register(key.AudioSampleRate, 44100, "Audio engine sample rate")
	register(key.AudioVolume, 100, "Initial volume, 0 to 100")
	register(key.EffectsEqualizer, "none", "Equalizer preset applied to the extracted audio")
	register(key.EffectsDenoise, false, "Apply spectral denoise")
	register(key.EffectsEnvironment, "none", "Simulated listening environment")
	register(key.EffectsPosition, "none", "Simulated source position")
	register(key.EffectsLoudnorm, false, "Normalise loudness")
	register(key.PlaylistMode, "ctime", "Playlist order: ctime, json or random")
	register(key.PlaylistOrderFile, "playlist.json", "Persisted order file name inside the folder")
	register(key.PlaylistWatch, true, "Re-reconcile the folder when files appear or disappear")
	register(key.LogsLevel, "info", "panic, fatal, error, warn, info, debug or trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.LogsFile, "", "Write logs to this file instead of stderr")
}

// Keys returns the registered keys in lexical order.
func Keys() []string {
	keys := make([]string, 0, len(Default))
	for k := range Default {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Workers resolves processing.workers, falling back to the host's logical CPU count.
func Workers() int {
	if n := viper.GetInt(key.ProcessingWorkers); n > 0 {
		return n
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
