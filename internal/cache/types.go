package cache

import (
	"context"
	"errors"

	"github.com/dgnsrekt/keypiano/internal/synth"
)

// Common errors for cache operations
var (
	// ErrMissingEntry is returned when a note has no cache entry yet.
	ErrMissingEntry = errors.New("missing cache entry")

	// ErrCorruptEntry is returned when a cache entry cannot be decoded.
	ErrCorruptEntry = errors.New("cache entry corrupted")

	// ErrUnknownNote is returned for names that are not in the note table.
	ErrUnknownNote = errors.New("note not in table")
)

// Sink plays a waveform, blocking until it has finished. Stop cuts the
// sounding waveform short; its Play call returns audio.ErrInterrupted.
type Sink interface {
	Play(ctx context.Context, w synth.Waveform) error
	Stop() error
}

// Progress reports how many notes of a build are complete.
type Progress struct {
	Done    int    // notes finished so far
	Total   int    // notes in the table
	Note    string // note that just finished
	Skipped bool   // entry was already up to date
}

// Percent returns Done/Total in [0, 1].
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

// Complete reports whether every note is done.
func (p Progress) Complete() bool {
	return p.Total > 0 && p.Done >= p.Total
}

// BuildResult summarizes a finished build.
type BuildResult struct {
	Written int // entries synthesized and written
	Skipped int // entries already up to date
}

// Stats describes what is on disk.
type Stats struct {
	Entries int   // number of note entries present
	Bytes   int64 // total size of those entries
}

// EventKind classifies a change to the cache directory.
type EventKind int

const (
	// EntryWritten means an entry was created or rewritten.
	EntryWritten EventKind = iota
	// EntryRemoved means an entry was deleted or renamed away.
	EntryRemoved
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EntryWritten:
		return "written"
	case EntryRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a change to one note's cache entry.
type Event struct {
	Name string
	Kind EventKind
}
