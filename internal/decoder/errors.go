package decoder

import "errors"

var (
	ErrNoVideo         = errors.New("decoder: no video stream")
	ErrNoAudio         = errors.New("decoder: no audio stream")
	ErrInputContextNil = errors.New("decoder: input context is nil")

	// ErrProbe wraps every failure to open or describe a media item.
	ErrProbe = errors.New("decoder: probe failed")
	// ErrDecode wraps mid-stream read failures.
	ErrDecode = errors.New("decoder: decode failed")
)
