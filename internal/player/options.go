package player

import (
	"time"

	"github.com/GoldenFealla/framesync/internal/config"
	"github.com/GoldenFealla/framesync/internal/key"
	"github.com/spf13/viper"
)

// Options tunes the engine.
type Options struct {
	// EvictionMargin is how many frames behind the displayed one stay buffered.
	EvictionMargin int
	// QueueSize bounds the intake queue between decoder and workers.
	QueueSize int
	// Lookahead is how far ahead of the playhead the decoder may run.
	Lookahead   int
	Workers     int
	SeekTimeout time.Duration
	JoinTimeout time.Duration
	Volume      int
}

func DefaultOptions() Options {
	return Options{
		EvictionMargin: 90,
		QueueSize:      120,
		Lookahead:      240,
		Workers:        4,
		SeekTimeout:    10 * time.Second,
		JoinTimeout:    500 * time.Millisecond,
		Volume:         100,
	}
}

// OptionsFromConfig reads the playback.* and processing.* keys.
func OptionsFromConfig() Options {
	return Options{
		EvictionMargin: viper.GetInt(key.PlaybackEvictionMargin),
		QueueSize:      viper.GetInt(key.PlaybackBufferSize),
		Lookahead:      viper.GetInt(key.PlaybackLookahead),
		Workers:        config.Workers(),
		SeekTimeout:    viper.GetDuration(key.PlaybackSeekTimeout),
		JoinTimeout:    viper.GetDuration(key.PlaybackJoinTimeout),
		Volume:         viper.GetInt(key.AudioVolume),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.EvictionMargin <= 0 {
		o.EvictionMargin = d.EvictionMargin
	}
	if o.QueueSize <= 0 {
		o.QueueSize = d.QueueSize
	}
	if o.Lookahead <= 0 {
		o.Lookahead = d.Lookahead
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.SeekTimeout <= 0 {
		o.SeekTimeout = d.SeekTimeout
	}
	if o.JoinTimeout <= 0 {
		o.JoinTimeout = d.JoinTimeout
	}
	return o
}
