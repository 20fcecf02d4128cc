package playlist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/GoldenFealla/framesync/internal/filesystem"
	"github.com/samber/lo"
)

// Extensions are the file suffixes treated as video, lower case.
var Extensions = []string{".mp4", ".avi", ".mov", ".mkv", ".webm", ".flv", ".wmv"}

func isVideo(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// entry is a video file found on disk.
type entry struct {
	path    string
	created int64
}

// listFolder returns the regular video files directly inside dir.
func listFolder(dir string) ([]entry, error) {
	infos, err := filesystem.API().ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("playlist: reading folder failed: %w", err)
	}

	var out []entry
	for _, fi := range infos {
		if !fi.Mode().IsRegular() || !isVideo(fi.Name()) {
			continue
		}
		out = append(out, entry{
			path:    filepath.Join(dir, fi.Name()),
			created: creationTime(fi).UnixNano(),
		})
	}
	return out, nil
}

// statEntries describes files given one by one. Files that cannot be stat'ed are dropped.
func statEntries(paths []string) []entry {
	out := make([]entry, 0, len(paths))
	for _, p := range paths {
		fi, err := filesystem.API().Stat(p)
		if err != nil || fi.IsDir() {
			continue
		}
		out = append(out, entry{path: p, created: creationTime(fi).UnixNano()})
	}
	return out
}

// byCreationTime sorts oldest first, ties broken by name.
func byCreationTime(entries []entry) []string {
	sorted := slices.Clone(entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].created != sorted[j].created {
			return sorted[i].created < sorted[j].created
		}
		return sorted[i].path < sorted[j].path
	})
	return lo.Map(sorted, func(e entry, _ int) string { return e.path })
}

// reconcile drops names no longer on disk and appends new ones in name order.
// It reports whether the result differs from order.
func reconcile(order, disk []string) ([]string, bool) {
	order = lo.Uniq(order)

	deleted := lo.Without(order, disk...)
	added := lo.Without(disk, order...)
	slices.Sort(added)

	final := append(lo.Without(order, deleted...), added...)
	return final, len(deleted) > 0 || len(added) > 0
}

func readOrder(path string) ([]string, bool) {
	b, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, false
	}

	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return nil, false
	}
	return names, true
}

func writeOrder(path string, names []string) error {
	if names == nil {
		names = []string{}
	}

	b, err := json.MarshalIndent(names, "", "    ")
	if err != nil {
		return fmt.Errorf("playlist: encoding order failed: %w", err)
	}

	if err := filesystem.API().WriteFile(path, b, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("playlist: writing order failed: %w", err)
	}
	return nil
}

func basenames(paths []string) []string {
	return lo.Map(paths, func(p string, _ int) string { return filepath.Base(p) })
}
