package playlist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GoldenFealla/framesync/internal/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

// touch creates files in order, each one second newer than the previous.
func touch(dir string, names ...string) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	So(filesystem.API().MkdirAll(dir, 0o755), ShouldBeNil)
	for i, name := range names {
		p := filepath.Join(dir, name)
		So(filesystem.API().WriteFile(p, []byte(name), 0o644), ShouldBeNil)
		ts := base.Add(time.Duration(i) * time.Second)
		So(filesystem.API().Chtimes(p, ts, ts), ShouldBeNil)
	}
}

func names(paths []string) []string {
	return basenames(paths)
}

func readOrderFile(path string) []string {
	b, err := filesystem.API().ReadFile(path)
	So(err, ShouldBeNil)
	var out []string
	So(json.Unmarshal(b, &out), ShouldBeNil)
	return out
}

func TestLoading(t *testing.T) {
	Convey("Given a folder on an in-memory filesystem", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		touch("/v", "c.mp4", "a.MKV", "notes.txt", "b.webm")
		So(filesystem.API().MkdirAll("/v/sub.mp4", 0o755), ShouldBeNil)

		Convey("Creation time mode keeps only videos, oldest first", func() {
			s := NewScheduler(CreationTime, "")
			So(s.LoadFolder("/v"), ShouldBeNil)
			So(names(s.Items()), ShouldResemble, []string{"c.mp4", "a.MKV", "b.webm"})

			cur, ok := s.Current()
			So(ok, ShouldBeTrue)
			So(filepath.Base(cur), ShouldEqual, "c.mp4")
			So(s.Position(), ShouldEqual, "(1/3)")
		})

		Convey("Advance and Retreat wrap around", func() {
			s := NewScheduler(CreationTime, "")
			So(s.LoadFolder("/v"), ShouldBeNil)

			p, _ := s.Retreat()
			So(filepath.Base(p), ShouldEqual, "b.webm")
			p, _ = s.Advance()
			So(filepath.Base(p), ShouldEqual, "c.mp4")
			So(s.CanAdvance(), ShouldBeTrue)
			So(s.CanRetreat(), ShouldBeTrue)
		})

		Convey("An empty folder clears the playlist", func() {
			s := NewScheduler(CreationTime, "")
			So(s.LoadFolder("/v"), ShouldBeNil)

			So(filesystem.API().MkdirAll("/empty", 0o755), ShouldBeNil)
			err := s.LoadFolder("/empty")
			So(errors.Is(err, ErrEmpty), ShouldBeTrue)
			So(s.Len(), ShouldEqual, 0)
			_, ok := s.Current()
			So(ok, ShouldBeFalse)
			So(s.Position(), ShouldEqual, "")
		})

		Convey("A single file plays once and stops", func() {
			s := NewScheduler(PersistedOrder, "")
			So(s.LoadFiles("/v/a.MKV"), ShouldBeNil)
			So(s.Folder(), ShouldEqual, "")
			So(s.ContinuesAfterEnd(), ShouldBeFalse)
			So(s.CanAdvance(), ShouldBeFalse)

			exists, _ := filesystem.API().Exists("/v/playlist.json")
			So(exists, ShouldBeFalse)
			So(errors.Is(s.Reorder([]string{"a.MKV"}), ErrNoFolder), ShouldBeTrue)
		})

		Convey("JumpTo rejects indices outside the playlist", func() {
			s := NewScheduler(CreationTime, "")
			So(s.LoadFolder("/v"), ShouldBeNil)

			_, err := s.JumpTo(3)
			So(errors.Is(err, ErrIndexOutOfRange), ShouldBeTrue)

			p, err := s.JumpTo(2)
			So(err, ShouldBeNil)
			So(filepath.Base(p), ShouldEqual, "b.webm")
			So(s.Position(), ShouldEqual, "(3/3)")
		})
	})
}

func TestPersistedOrder(t *testing.T) {
	Convey("Given persisted order mode", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		Convey("A stale order file is reconciled and rewritten", func() {
			touch("/v", "B.mp4", "C.mp4", "D.mp4")
			So(writeOrder("/v/playlist.json", []string{"A.mp4", "B.mp4", "C.mp4"}), ShouldBeNil)

			s := NewScheduler(PersistedOrder, "")
			So(s.LoadFolder("/v"), ShouldBeNil)
			So(names(s.Items()), ShouldResemble, []string{"B.mp4", "C.mp4", "D.mp4"})
			So(readOrderFile("/v/playlist.json"), ShouldResemble, []string{"B.mp4", "C.mp4", "D.mp4"})

			b, _ := filesystem.API().ReadFile("/v/playlist.json")
			So(string(b), ShouldContainSubstring, "\n    \"B.mp4\"")
		})

		Convey("The order file wins over creation time", func() {
			touch("/v", "a.mp4", "b.mp4", "c.mp4")
			So(writeOrder("/v/playlist.json", []string{"c.mp4", "a.mp4", "b.mp4"}), ShouldBeNil)
			before, _ := filesystem.API().Stat("/v/playlist.json")

			s := NewScheduler(PersistedOrder, "")
			So(s.LoadFolder("/v"), ShouldBeNil)
			So(names(s.Items()), ShouldResemble, []string{"c.mp4", "a.mp4", "b.mp4"})

			after, _ := filesystem.API().Stat("/v/playlist.json")
			So(after.ModTime(), ShouldEqual, before.ModTime())
		})

		Convey("A missing order file is created from creation time", func() {
			touch("/v", "z.mp4", "y.mp4")

			s := NewScheduler(PersistedOrder, "order.json")
			So(s.LoadFolder("/v"), ShouldBeNil)
			So(readOrderFile("/v/order.json"), ShouldResemble, []string{"z.mp4", "y.mp4"})
		})

		Convey("Reorder keeps the current item and persists", func() {
			touch("/v", "a.mp4", "b.mp4", "c.mp4")

			s := NewScheduler(PersistedOrder, "")
			So(s.LoadFolder("/v"), ShouldBeNil)
			_, err := s.JumpTo(1)
			So(err, ShouldBeNil)

			So(s.Reorder([]string{"c.mp4", "ghost.mp4", "b.mp4"}), ShouldBeNil)
			So(names(s.Items()), ShouldResemble, []string{"c.mp4", "b.mp4", "a.mp4"})

			cur, _ := s.Current()
			So(filepath.Base(cur), ShouldEqual, "b.mp4")
			So(readOrderFile("/v/playlist.json"), ShouldResemble, []string{"c.mp4", "b.mp4", "a.mp4"})
		})

		Convey("Refresh picks up new files", func() {
			touch("/v", "a.mp4", "b.mp4")

			s := NewScheduler(PersistedOrder, "")
			So(s.LoadFolder("/v"), ShouldBeNil)
			s.Advance()

			So(filesystem.API().WriteFile("/v/0.mp4", nil, 0o644), ShouldBeNil)
			So(filesystem.API().Remove("/v/a.mp4"), ShouldBeNil)
			So(s.Refresh(), ShouldBeNil)

			So(names(s.Items()), ShouldResemble, []string{"b.mp4", "0.mp4"})
			cur, _ := s.Current()
			So(filepath.Base(cur), ShouldEqual, "b.mp4")
		})
	})
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		order, disk []string
		want        []string
		changed     bool
	}{
		{"unchanged", []string{"a", "b"}, []string{"b", "a"}, []string{"a", "b"}, false},
		{"drop and append", []string{"A", "B", "C"}, []string{"B", "C", "D"}, []string{"B", "C", "D"}, true},
		{"new files sorted", []string{"m"}, []string{"z", "m", "b"}, []string{"m", "b", "z"}, true},
		{"duplicates collapse", []string{"a", "a"}, []string{"a"}, []string{"a"}, false},
		{"empty order", nil, []string{"b", "a"}, []string{"a", "b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := reconcile(tt.order, tt.disk)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") || changed != tt.changed {
				t.Errorf("reconcile(%v, %v) = %v, %v; want %v, %v", tt.order, tt.disk, got, changed, tt.want, tt.changed)
			}
		})
	}
}

func TestRandom(t *testing.T) {
	Convey("Given five items in random mode", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		touch("/v", "1.mp4", "2.mp4", "3.mp4", "4.mp4", "5.mp4")
		s := NewScheduler(Random, "")
		So(s.LoadFolder("/v"), ShouldBeNil)
		So(s.CurrentIndex(), ShouldEqual, -1)
		So(s.CanRetreat(), ShouldBeFalse)

		Convey("Five advances visit every item exactly once", func() {
			seen := map[string]int{}
			var last string
			for i := 0; i < 5; i++ {
				p, ok := s.Advance()
				So(ok, ShouldBeTrue)
				seen[p]++
				last = p
			}
			So(seen, ShouldHaveLength, 5)
			for _, n := range seen {
				So(n, ShouldEqual, 1)
			}

			Convey("The next round never starts with the item just played", func() {
				p, ok := s.Advance()
				So(ok, ShouldBeTrue)
				So(p, ShouldNotEqual, last)
			})
		})

		Convey("Retreat undoes Advance", func() {
			first, _ := s.Advance()
			second, _ := s.Advance()
			third, _ := s.Advance()

			p, ok := s.Retreat()
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, second)

			p, ok = s.Retreat()
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, first)

			_, ok = s.Retreat()
			So(ok, ShouldBeFalse)

			p, _ = s.Advance()
			So(p, ShouldEqual, second)
			p, _ = s.Advance()
			So(p, ShouldEqual, third)
		})

		Convey("JumpTo leaves only unplayed items in the pool", func() {
			s.shuffle = func([]int) {}
			So(s.LoadFolder("/v"), ShouldBeNil)

			p, _ := s.Advance()
			So(p, ShouldEqual, "/v/1.mp4")
			p, _ = s.Advance()
			So(p, ShouldEqual, "/v/2.mp4")

			p, err := s.JumpTo(4)
			So(err, ShouldBeNil)
			So(p, ShouldEqual, "/v/5.mp4")

			var rest []string
			for i := 0; i < 3; i++ {
				p, ok := s.Advance()
				So(ok, ShouldBeTrue)
				rest = append(rest, filepath.Base(p))
			}
			So(rest, ShouldResemble, []string{"2.mp4", "3.mp4", "4.mp4"})
		})

		Convey("Leaving random mode keeps the current item", func() {
			p, _ := s.Advance()
			So(s.SetMode(CreationTime), ShouldBeNil)
			cur, _ := s.Current()
			So(cur, ShouldEqual, p)
			So(names(s.Items()), ShouldResemble, []string{"1.mp4", "2.mp4", "3.mp4", "4.mp4", "5.mp4"})
		})

		Convey("A single item cannot advance in random mode once played", func() {
			So(s.LoadFiles("/v/1.mp4"), ShouldBeNil)
			p, ok := s.Advance()
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, "/v/1.mp4")
			So(s.ContinuesAfterEnd(), ShouldBeFalse)

			_, ok = s.Advance()
			So(ok, ShouldBeFalse)
		})
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"ctime", CreationTime, false},
		{"JSON", PersistedOrder, false},
		{"random", Random, false},
		{"", CreationTime, false},
		{"alphabetical", CreationTime, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.mp4"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewScheduler(CreationTime, "")
	if err := s.LoadFolder(dir); err != nil {
		t.Fatal(err)
	}

	changed := make(chan struct{}, 1)
	w, err := Watch(s, dir, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.mp4"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no refresh after a video was added")
	}

	if got := s.Len(); got != 2 {
		t.Errorf("Len() = %d after refresh, want 2", got)
	}
}
