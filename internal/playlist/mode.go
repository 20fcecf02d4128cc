package playlist

import (
	"fmt"
	"strings"
)

// Mode is the ordering of a playlist.
type Mode int

const (
	// CreationTime sorts items by file creation time.
	CreationTime Mode = iota
	// PersistedOrder follows the order file kept in the folder.
	PersistedOrder
	// Random plays a shuffled permutation, remembering what was played.
	Random
)

func (m Mode) String() string {
	switch m {
	case CreationTime:
		return "ctime"
	case PersistedOrder:
		return "json"
	case Random:
		return "random"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts the names printed by String plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ctime", "creation", "creation-time":
		return CreationTime, nil
	case "json", "persisted", "order":
		return PersistedOrder, nil
	case "random", "shuffle":
		return Random, nil
	default:
		return CreationTime, fmt.Errorf("playlist: unknown mode %q", s)
	}
}
