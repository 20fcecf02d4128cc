package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/GoldenFealla/framesync/internal/media"
)

func newFFmpeg(binary string) *FFmpeg {
	return &FFmpeg{Binary: binary, MaxFPS: 25, TargetFPS: 25, Timeout: 10 * time.Second}
}

func TestNeeded(t *testing.T) {
	f := newFFmpeg("ffmpeg")

	tests := []struct {
		fps  float64
		want bool
	}{
		{24, false},
		{25, false},
		{29.97, true},
		{60, true},
	}

	for _, tt := range tests {
		if got := f.Needed(media.Item{FrameRate: tt.fps}); got != tt.want {
			t.Errorf("Needed(%v fps) = %v, want %v", tt.fps, got, tt.want)
		}
	}

	f.MaxFPS = 0
	if f.Needed(media.Item{FrameRate: 120}) {
		t.Error("a zero threshold disables normalization")
	}
}

func TestArgs(t *testing.T) {
	f := newFFmpeg("ffmpeg")
	args := f.Args("in.mp4", "out.mp4")

	want := []string{"-y", "-loglevel", "error", "-i", "in.mp4", "-r", "25", "-vsync", "2",
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "18", "-c:a", "copy", "out.mp4"}
	if !slices.Equal(args, want) {
		t.Errorf("Args() = %v, want %v", args, want)
	}

	if got := f.OutputPath("/tmp/cache"); got != "/tmp/cache/temp_fps25.mp4" {
		t.Errorf("OutputPath() = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	ctx := context.Background()

	t.Run("nonzero exit", func(t *testing.T) {
		_, err := newFFmpeg("false").Normalize(ctx, "in.mp4", t.TempDir())
		if !errors.Is(err, ErrTranscode) {
			t.Fatalf("expected ErrTranscode, got %v", err)
		}
	})

	t.Run("missing output", func(t *testing.T) {
		_, err := newFFmpeg("true").Normalize(ctx, "in.mp4", t.TempDir())
		if !errors.Is(err, ErrTranscode) {
			t.Fatalf("expected ErrTranscode, got %v", err)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		f := newFFmpeg("true")
		dir := t.TempDir()
		if err := os.WriteFile(f.OutputPath(dir), nil, 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := f.Normalize(ctx, "in.mp4", dir)
		if !errors.Is(err, ErrTranscode) {
			t.Fatalf("expected ErrTranscode, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		f := newFFmpeg("true")
		dir := t.TempDir()
		if err := os.WriteFile(f.OutputPath(dir), []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
		out, err := f.Normalize(ctx, "in.mp4", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != filepath.Join(dir, "temp_fps25.mp4") {
			t.Errorf("unexpected output %q", out)
		}
	})
}
