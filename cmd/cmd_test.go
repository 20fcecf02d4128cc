package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/GoldenFealla/framesync/internal/media"
	"github.com/GoldenFealla/framesync/internal/playlist"
	"github.com/spf13/cobra"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		def     any
		raw     string
		want    any
		wantErr bool
	}{
		{"int", 90, "120", 120, false},
		{"bad int", 90, "many", nil, true},
		{"float", 25.0, "29.97", 29.97, false},
		{"bool", false, "true", true, false},
		{"bad bool", false, "maybe", nil, true},
		{"duration", "10s", "2s", "2s", false},
		{"bad duration", "10s", "soon", nil, true},
		{"plain string", "ctime", "random", "random", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValue(tt.def, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

type staticProber map[string]media.Item

func (p staticProber) Probe(path string) (media.Item, error) {
	return p[path], nil
}

type fpsLimit float64

func (l fpsLimit) Needed(item media.Item) bool { return item.FrameRate > float64(l) }

func (fpsLimit) Normalize(context.Context, string, string) (string, error) {
	return "", nil
}

func TestRenderProbe(t *testing.T) {
	prober := staticProber{
		"/v/fast.mp4": {Path: "/v/fast.mp4", FrameRate: 59.94, TotalFrames: 600, Duration: 10 * time.Second, Width: 1920, Height: 1080, HasAudio: true},
		"/v/slow.mp4": {Path: "/v/slow.mp4", FrameRate: 24, TotalFrames: 1440, Duration: time.Minute, Width: 640, Height: 360},
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	renderProbe(cmd, prober, fpsLimit(25), []string{"/v/fast.mp4", "/v/slow.mp4"})

	got := out.String()
	for _, want := range []string{"fast.mp4", "1920x1080", "59.940", "00:10", "slow.mp4", "640x360", "01:00"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestRenderPlaylist(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	if err := filesystem.API().MkdirAll("/v", 0o755); err != nil {
		t.Fatal(err)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"b.mp4", "a.mp4", "notes.txt"} {
		p := "/v/" + name
		if err := filesystem.API().WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		ts := base.Add(time.Duration(i) * time.Minute)
		if err := filesystem.API().Chtimes(p, ts, ts); err != nil {
			t.Fatal(err)
		}
	}

	s := playlist.NewScheduler(playlist.CreationTime, "")
	if err := s.LoadFolder("/v"); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	renderPlaylist(cmd, s)

	got := out.String()
	if strings.Contains(got, "notes.txt") {
		t.Errorf("non-video listed:\n%s", got)
	}
	if strings.Index(got, "b.mp4") > strings.Index(got, "a.mp4") {
		t.Errorf("b.mp4 was created first and should be listed first:\n%s", got)
	}
	if !strings.Contains(got, "(1/2)") {
		t.Errorf("missing position:\n%s", got)
	}
}
