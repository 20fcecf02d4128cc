// Package key lists the configuration keys understood by framesync.
package key

// Playback engine.
const (
	PlaybackEvictionMargin = "playback.eviction_margin"
	PlaybackBufferSize     = "playback.buffer_size"
	PlaybackLookahead      = "playback.lookahead"
	PlaybackTickInterval   = "playback.tick_interval"
	PlaybackSeekTimeout    = "playback.seek_timeout"
	PlaybackJoinTimeout    = "playback.join_timeout"
	PlaybackAdvanceDelay   = "playback.advance_delay"
)

// Frame processing.
const (
	ProcessingWorkers = "processing.workers"
)

// External transcoding utility.
const (
	TranscodeBinary    = "transcode.binary"
	TranscodeMaxFPS    = "transcode.max_fps"
	TranscodeTargetFPS = "transcode.target_fps"
	TranscodeTimeout   = "transcode.timeout"
)

// Audio output.
const (
	AudioSampleRate = "audio.sample_rate"
	AudioVolume     = "audio.volume"
)

// Audio effects applied to the extracted track.
const (
	EffectsEqualizer   = "effects.eq"
	EffectsDenoise     = "effects.denoise"
	EffectsEnvironment = "effects.environment"
	EffectsPosition    = "effects.position"
	EffectsLoudnorm    = "effects.loudnorm"
)

// Playlist.
const (
	PlaylistMode      = "playlist.mode"
	PlaylistOrderFile = "playlist.order_file"
	PlaylistWatch     = "playlist.watch"
)

// Logging.
const (
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
	LogsFile  = "logs.file"
)
