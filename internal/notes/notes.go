package notes

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnknownNote is returned when a key or name is not in the table.
var ErrUnknownNote = errors.New("unknown note")

// Note is a single entry of the note table.
type Note struct {
	Key       rune    // keyboard key that triggers the note
	Name      string  // display name, also the cache entry name (e.g. "C4")
	Frequency float64 // fundamental frequency in Hz
}

// String returns the "key → note" label shown in the UI.
func (n Note) String() string {
	return fmt.Sprintf("%s → %s", strings.ToUpper(string(n.Key)), n.Name)
}

// Table is an immutable, ordered list of notes.
type Table struct {
	notes  []Note
	byKey  map[rune]int
	byName map[string]int
}

var defaultNotes = []Note{
	{'a', "C4", 261.63},
	{'s', "D4", 293.66},
	{'d', "E4", 329.63},
	{'f', "F4", 349.23},
	{'g', "G4", 392.00},
	{'h', "A4", 440.00},
	{'j', "B4", 493.88},
	{'k', "C5", 523.25},
	{'l', "D5", 587.33},
	{'z', "E5", 659.25},
	{'x', "F5", 698.46},
	{'c', "G5", 783.99},
	{'v', "A5", 880.00},
	{'b', "B5", 987.77},
	{'n', "C6", 1046.50},
}

// Default returns the two-octave C4–C6 table bound to the home and bottom
// keyboard rows.
func Default() Table {
	t, err := NewTable(defaultNotes)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTable builds a table from notes, rejecting duplicate keys or names and
// non-positive frequencies.
func NewTable(notes []Note) (Table, error) {
	t := Table{
		notes:  make([]Note, len(notes)),
		byKey:  make(map[rune]int, len(notes)),
		byName: make(map[string]int, len(notes)),
	}
	copy(t.notes, notes)

	for i, n := range t.notes {
		if n.Name == "" {
			return Table{}, fmt.Errorf("note %d has no name", i)
		}
		if n.Frequency <= 0 {
			return Table{}, fmt.Errorf("note %s: frequency must be positive, got %v", n.Name, n.Frequency)
		}
		if _, ok := t.byKey[n.Key]; ok {
			return Table{}, fmt.Errorf("duplicate key %q", n.Key)
		}
		if _, ok := t.byName[n.Name]; ok {
			return Table{}, fmt.Errorf("duplicate note name %q", n.Name)
		}
		t.byKey[n.Key] = i
		t.byName[n.Name] = i
	}

	return t, nil
}

// Len returns the number of notes.
func (t Table) Len() int { return len(t.notes) }

// Notes returns a copy of the notes in table order.
func (t Table) Notes() []Note {
	out := make([]Note, len(t.notes))
	copy(out, t.notes)
	return out
}

// ByKey looks up a note by its trigger key. Lookup is case-insensitive.
func (t Table) ByKey(key rune) (Note, bool) {
	i, ok := t.byKey[key]
	if !ok {
		lower, _ := utf8.DecodeRuneInString(strings.ToLower(string(key)))
		i, ok = t.byKey[lower]
	}
	if !ok {
		return Note{}, false
	}
	return t.notes[i], true
}

// ByName looks up a note by its display name, e.g. "C4".
func (t Table) ByName(name string) (Note, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Note{}, false
	}
	return t.notes[i], true
}

// Resolve accepts either a display name ("C4") or a single trigger key
// ("a") and returns the matching note.
func (t Table) Resolve(s string) (Note, error) {
	if n, ok := t.ByName(s); ok {
		return n, nil
	}
	if n, ok := t.ByName(strings.ToUpper(s)); ok {
		return n, nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if n, ok := t.ByKey(r); ok {
			return n, nil
		}
	}
	return Note{}, fmt.Errorf("%w: %q", ErrUnknownNote, s)
}
