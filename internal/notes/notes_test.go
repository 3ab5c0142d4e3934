package notes

import (
	"errors"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	table := Default()

	if table.Len() != 15 {
		t.Fatalf("expected 15 notes, got %d", table.Len())
	}

	first := table.Notes()[0]
	if first.Key != 'a' || first.Name != "C4" || first.Frequency != 261.63 {
		t.Errorf("unexpected first note: %+v", first)
	}

	last := table.Notes()[table.Len()-1]
	if last.Name != "C6" {
		t.Errorf("expected last note C6, got %s", last.Name)
	}
}

func TestByKey(t *testing.T) {
	table := Default()

	tests := []struct {
		key  rune
		name string
		ok   bool
	}{
		{'a', "C4", true},
		{'A', "C4", true},
		{'h', "A4", true},
		{'n', "C6", true},
		{'q', "", false},
		{'1', "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			n, ok := table.ByKey(tt.key)
			if ok != tt.ok {
				t.Fatalf("ByKey(%q) ok = %v, want %v", tt.key, ok, tt.ok)
			}
			if n.Name != tt.name {
				t.Errorf("ByKey(%q) = %s, want %s", tt.key, n.Name, tt.name)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	table := Default()

	for _, in := range []string{"C4", "c4", "a", "A"} {
		n, err := table.Resolve(in)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", in, err)
		}
		if n.Name != "C4" {
			t.Errorf("Resolve(%q) = %s, want C4", in, n.Name)
		}
	}

	if _, err := table.Resolve("H9"); !errors.Is(err, ErrUnknownNote) {
		t.Errorf("expected ErrUnknownNote, got %v", err)
	}
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name  string
		notes []Note
	}{
		{"duplicate key", []Note{{'a', "C4", 261.63}, {'a', "D4", 293.66}}},
		{"duplicate name", []Note{{'a', "C4", 261.63}, {'s', "C4", 293.66}}},
		{"zero frequency", []Note{{'a', "C4", 0}}},
		{"empty name", []Note{{'a', "", 261.63}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTable(tt.notes); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNoteString(t *testing.T) {
	n, _ := Default().ByKey('a')
	if got := n.String(); got != "A → C4" {
		t.Errorf("String() = %q", got)
	}
}
