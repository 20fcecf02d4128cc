package player

import (
	"context"
	"errors"

	"github.com/GoldenFealla/framesync/internal/audio"
	"github.com/GoldenFealla/framesync/internal/decoder"
	"github.com/GoldenFealla/framesync/internal/media"
	"github.com/GoldenFealla/framesync/internal/transcode"
)

var (
	ErrSeekTimeout = errors.New("player: seek timed out")
	ErrNotLoaded   = errors.New("player: nothing loaded")
)

// ErrorKind groups failures by how playback reacts to them.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindProbe: the item cannot be opened. Skip to the next item.
	KindProbe
	// KindDecode: reading failed mid-stream. The item ends there.
	KindDecode
	// KindTranscode: normalization failed. Skip to the next item.
	KindTranscode
	// KindAudioLoad: no sound, video continues.
	KindAudioLoad
	// KindSeekTimeout: the previous position and play state are kept.
	KindSeekTimeout
	// KindFatal: the engine shuts down.
	KindFatal
)

// Classify maps an error onto the failure taxonomy. Unknown errors are fatal.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, transcode.ErrTranscode):
		return KindTranscode
	case errors.Is(err, audio.ErrAudioLoad), errors.Is(err, decoder.ErrNoAudio):
		return KindAudioLoad
	case errors.Is(err, decoder.ErrProbe), errors.Is(err, decoder.ErrNoVideo), errors.Is(err, decoder.ErrInputContextNil):
		return KindProbe
	case errors.Is(err, decoder.ErrDecode), errors.Is(err, media.ErrEndOfStream):
		return KindDecode
	case errors.Is(err, ErrSeekTimeout):
		return KindSeekTimeout
	case errors.Is(err, context.Canceled):
		return KindNone
	default:
		return KindFatal
	}
}

// PerItem reports whether the failure is confined to one item, so the playlist moves on.
func (k ErrorKind) PerItem() bool {
	return k == KindProbe || k == KindDecode || k == KindTranscode
}

func (k ErrorKind) Status() string {
	switch k {
	case KindNone:
		return ""
	case KindProbe:
		return "Cannot open video"
	case KindDecode:
		return "Video read error"
	case KindTranscode:
		return "Frame rate conversion failed"
	case KindAudioLoad:
		return "Audio unavailable, playing without sound"
	case KindSeekTimeout:
		return "Seek failed"
	default:
		return "Playback stopped after an internal error"
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindProbe:
		return "probe"
	case KindDecode:
		return "decode"
	case KindTranscode:
		return "transcode"
	case KindAudioLoad:
		return "audio"
	case KindSeekTimeout:
		return "seek-timeout"
	default:
		return "fatal"
	}
}
