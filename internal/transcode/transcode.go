// Package transcode normalizes high frame rate media with an external ffmpeg binary.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/GiGurra/cmder"
	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/key"
	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/GoldenFealla/framesync/internal/media"
	"github.com/spf13/viper"
)

var ErrTranscode = errors.New("transcode: failed")

// Transcoder produces a frame-rate normalized copy of a media file.
type Transcoder interface {
	// Needed reports whether item must be normalized before playback.
	Needed(item media.Item) bool
	// Normalize writes a normalized copy of input into dir and returns its path.
	Normalize(ctx context.Context, input, dir string) (string, error)
}

// FFmpeg runs the ffmpeg command line tool as a blocking subprocess.
type FFmpeg struct {
	Binary    string
	MaxFPS    float64
	TargetFPS float64
	Timeout   time.Duration
}

var _ Transcoder = (*FFmpeg)(nil)

// FromConfig reads the transcode.* keys.
func FromConfig() *FFmpeg {
	return &FFmpeg{
		Binary:    viper.GetString(key.TranscodeBinary),
		MaxFPS:    viper.GetFloat64(key.TranscodeMaxFPS),
		TargetFPS: viper.GetFloat64(key.TranscodeTargetFPS),
		Timeout:   viper.GetDuration(key.TranscodeTimeout),
	}
}

func (f *FFmpeg) Needed(item media.Item) bool {
	return f.MaxFPS > 0 && item.FrameRate > f.MaxFPS
}

// OutputPath is where Normalize writes the copy of input.
func (f *FFmpeg) OutputPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("temp_fps%s.mp4", strconv.FormatFloat(f.TargetFPS, 'f', -1, 64)))
}

// Args is the ffmpeg argument list, without the binary.
func (f *FFmpeg) Args(input, output string) []string {
	return []string{
		"-y", "-loglevel", "error",
		"-i", input,
		"-r", strconv.FormatFloat(f.TargetFPS, 'f', -1, 64),
		"-vsync", "2",
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "18",
		"-c:a", "copy",
		output,
	}
}

// Normalize fails with ErrTranscode on a nonzero exit or when the output is missing or empty.
func (f *FFmpeg) Normalize(ctx context.Context, input, dir string) (string, error) {
	output := f.OutputPath(dir)
	logger := log.For("transcode").WithField("item", filepath.Base(input))

	start := time.Now()
	logger.Infof("normalizing to %v fps", f.TargetFPS)

	cmd := cmder.New(append([]string{f.Binary}, f.Args(input, output)...)...)
	if f.Timeout > 0 {
		cmd = cmd.WithAttemptTimeout(f.Timeout)
	}

	res := cmd.Run(ctx)
	if res.Err != nil {
		return "", fmt.Errorf("%w: %s: %w: %s", ErrTranscode, f.Binary, res.Err, strings.TrimSpace(res.Combined))
	}

	if err := checkOutput(output); err != nil {
		return "", err
	}

	logger.WithField("took", time.Since(start).Round(time.Millisecond)).Info("normalized")
	return output, nil
}

func checkOutput(path string) error {
	fi, err := filesystem.API().Stat(path)
	if err != nil {
		return fmt.Errorf("%w: output %s: %w", ErrTranscode, path, err)
	}
	if fi.IsDir() || fi.Size() == 0 {
		return fmt.Errorf("%w: output %s is empty", ErrTranscode, path)
	}
	return nil
}
