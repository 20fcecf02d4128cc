// Package playlist orders media items and decides which one plays next.
package playlist

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmpty           = errors.New("playlist: empty")
	ErrIndexOutOfRange = errors.New("playlist: index out of range")
	ErrNoFolder        = errors.New("playlist: no folder selected")
)

// DefaultOrderFile is the name of the persisted order kept inside a folder.
const DefaultOrderFile = "playlist.json"

// Scheduler holds the playlist state. It is safe for concurrent use.
type Scheduler struct {
	mu sync.Mutex

	mode      Mode
	orderFile string

	// folder is empty when the items were picked one by one.
	folder string
	items  []string

	// current is -1 before the first item is chosen.
	current int

	// Random mode only.
	history  []int
	unplayed []int
	shuffle  func([]int)

	log *logrus.Entry
}

func NewScheduler(mode Mode, orderFile string) *Scheduler {
	return &Scheduler{
		mode:      mode,
		orderFile: lo.CoalesceOrEmpty(orderFile, DefaultOrderFile),
		current:   -1,
		shuffle: func(s []int) {
			lo.Shuffle(s)
		},
		log: log.For("playlist"),
	}
}

// LoadFolder replaces the playlist with the video files of dir. An empty folder clears the
// playlist and returns ErrEmpty.
func (s *Scheduler) LoadFolder(dir string) error {
	entries, err := listFolder(dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		s.resetLocked("", nil)
		return fmt.Errorf("%w: no videos in %s", ErrEmpty, dir)
	}

	items, err := s.orderLocked(dir, entries)
	if err != nil {
		return err
	}
	s.resetLocked(dir, items)

	s.log.WithField("folder", dir).Infof("loaded %d items (%s)", len(items), s.mode)
	return nil
}

// LoadFiles replaces the playlist with the given files. Persisted ordering needs a folder,
// so it falls back to creation time here.
func (s *Scheduler) LoadFiles(paths ...string) error {
	entries := statEntries(paths)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		s.resetLocked("", nil)
		return ErrEmpty
	}
	s.resetLocked("", byCreationTime(entries))
	return nil
}

// Refresh re-reads the folder after files were added or removed, keeping the current item
// when it still exists.
func (s *Scheduler) Refresh() error {
	s.mu.Lock()
	dir := s.folder
	s.mu.Unlock()

	if dir == "" {
		return ErrNoFolder
	}

	entries, err := listFolder(dir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir != s.folder {
		return nil
	}

	items, err := s.orderLocked(dir, entries)
	if err != nil {
		return err
	}
	if slices.Equal(items, s.items) {
		return nil
	}

	cur := s.currentPathLocked()
	s.items = items
	s.current = slices.Index(items, cur)
	if s.current < 0 && len(items) > 0 && s.mode != Random {
		s.current = 0
	}
	if s.mode == Random {
		s.resetRandomLocked()
	}

	s.log.WithField("folder", dir).Infof("folder changed, %d items", len(items))
	return nil
}

// orderLocked sorts entries for the active mode.
func (s *Scheduler) orderLocked(dir string, entries []entry) ([]string, error) {
	ordered := byCreationTime(entries)
	if s.mode != PersistedOrder || dir == "" {
		return ordered, nil
	}

	path := filepath.Join(dir, s.orderFile)
	disk := basenames(ordered)

	names, ok := readOrder(path)
	if !ok {
		if err := writeOrder(path, disk); err != nil {
			s.log.Warnf("creating order file failed: %v", err)
		}
		return ordered, nil
	}

	final, changed := reconcile(names, disk)
	if changed {
		if err := writeOrder(path, final); err != nil {
			s.log.Warnf("rewriting order file failed: %v", err)
		}
	}

	return lo.Map(final, func(name string, _ int) string { return filepath.Join(dir, name) }), nil
}

func (s *Scheduler) resetLocked(dir string, items []string) {
	s.folder = dir
	s.items = items
	s.history = nil
	s.unplayed = nil
	s.current = -1

	if len(items) == 0 {
		return
	}
	if s.mode == Random {
		s.resetRandomLocked()
		return
	}
	s.current = 0
}

// resetRandomLocked refills the pool with every index but the current one and forgets the
// history.
func (s *Scheduler) resetRandomLocked() {
	s.history = nil
	s.unplayed = s.unplayed[:0]
	for i := range s.items {
		if i != s.current {
			s.unplayed = append(s.unplayed, i)
		}
	}
	s.shuffle(s.unplayed)
}

// Advance moves to the next item and returns it. It reports false when there is nothing to
// move to.
func (s *Scheduler) Advance() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return "", false
	}

	switch s.mode {
	case Random:
		if s.current != -1 {
			s.history = append(s.history, s.current)
		}
		if len(s.unplayed) == 0 {
			s.resetRandomLocked()
		}
		if len(s.unplayed) == 0 {
			return "", false
		}
		s.current, s.unplayed = s.unplayed[0], s.unplayed[1:]
	default:
		s.current = (s.current + 1) % len(s.items)
	}

	return s.items[s.current], true
}

// Retreat moves to the previous item. In random mode it walks back through the history
// and returns the left item to the front of the pool.
func (s *Scheduler) Retreat() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return "", false
	}

	switch s.mode {
	case Random:
		if len(s.history) == 0 {
			return "", false
		}
		if s.current != -1 {
			s.unplayed = append([]int{s.current}, s.unplayed...)
		}
		last := len(s.history) - 1
		s.current, s.history = s.history[last], s.history[:last]
	default:
		n := len(s.items)
		s.current = (s.current - 1 + n) % n
	}

	return s.items[s.current], true
}

// JumpTo makes index current. In random mode the pool becomes every index that was neither
// played nor is the target.
func (s *Scheduler) JumpTo(index int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return "", fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(s.items))
	}
	if index == s.current {
		return s.items[index], nil
	}

	s.current = index
	if s.mode == Random {
		s.unplayed = s.unplayed[:0]
		for i := range s.items {
			if i != index && !slices.Contains(s.history, i) {
				s.unplayed = append(s.unplayed, i)
			}
		}
		s.shuffle(s.unplayed)
	}
	return s.items[index], nil
}

// Reorder applies a new order given as basenames. Unknown names are ignored and items left
// out keep their relative order at the end. In persisted mode the order file is rewritten.
func (s *Scheduler) Reorder(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.folder == "" {
		return ErrNoFolder
	}

	known := basenames(s.items)
	names = lo.Filter(lo.Uniq(names), func(name string, _ int) bool {
		return slices.Contains(known, name)
	})
	names = append(names, lo.Without(known, names...)...)

	cur := s.currentPathLocked()
	s.items = lo.Map(names, func(name string, _ int) string { return filepath.Join(s.folder, name) })
	if cur != "" {
		s.current = slices.Index(s.items, cur)
	}
	if s.mode == Random {
		s.resetRandomLocked()
	}

	if s.mode == PersistedOrder {
		return writeOrder(filepath.Join(s.folder, s.orderFile), names)
	}
	return nil
}

// SetMode switches ordering, keeping the current item.
func (s *Scheduler) SetMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == s.mode {
		return nil
	}
	s.mode = mode

	if len(s.items) == 0 {
		return nil
	}

	cur := s.currentPathLocked()
	if s.folder != "" {
		entries := statEntries(s.items)
		items, err := s.orderLocked(s.folder, entries)
		if err != nil {
			return err
		}
		s.items = items
	} else {
		s.items = byCreationTime(statEntries(s.items))
	}

	s.current = slices.Index(s.items, cur)
	if mode == Random {
		s.resetRandomLocked()
	} else if s.current < 0 {
		s.current = 0
	}
	return nil
}

func (s *Scheduler) currentPathLocked() string {
	if s.current < 0 || s.current >= len(s.items) {
		return ""
	}
	return s.items[s.current]
}

// Current returns the current item.
func (s *Scheduler) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.currentPathLocked()
	return p, p != ""
}

func (s *Scheduler) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Scheduler) Items() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Scheduler) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Scheduler) Folder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.folder
}

// CanAdvance reports whether Advance would move.
func (s *Scheduler) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == Random {
		return len(s.unplayed) > 0 || len(s.items) > 1
	}
	return len(s.items) > 1
}

// CanRetreat reports whether Retreat would move.
func (s *Scheduler) CanRetreat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == Random {
		return len(s.history) > 0
	}
	return len(s.items) > 1
}

// ContinuesAfterEnd reports whether the end of the current item should advance the
// playlist rather than stop playback.
func (s *Scheduler) ContinuesAfterEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == Random && len(s.unplayed) > 0 {
		return true
	}
	return len(s.items) > 1
}

// Position renders the current place as "(i/n)", or "" when nothing is selected.
func (s *Scheduler) Position() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current < 0 || len(s.items) == 0 {
		return ""
	}
	return fmt.Sprintf("(%d/%d)", s.current+1, len(s.items))
}
