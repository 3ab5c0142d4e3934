package synth

import (
	"fmt"
	"strings"
)

// Timbre selects the shape of the base carrier.
type Timbre int

const (
	// Piano uses a sine carrier.
	Piano Timbre = iota
	// Organ uses a hard square carrier, sign(sin(x)).
	Organ
)

// String returns the string representation of the timbre.
func (t Timbre) String() string {
	switch t {
	case Piano:
		return "piano"
	case Organ:
		return "organ"
	default:
		return "unknown"
	}
}

// ParseTimbre parses "piano" or "organ", ignoring case and surrounding
// whitespace.
func ParseTimbre(s string) (Timbre, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "piano":
		return Piano, nil
	case "organ":
		return Organ, nil
	default:
		return Piano, fmt.Errorf("%w: unknown timbre %q (want piano or organ)", ErrInvalidArgument, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Timbre) MarshalText() ([]byte, error) {
	if t != Piano && t != Organ {
		return nil, fmt.Errorf("%w: unknown timbre %d", ErrInvalidArgument, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Timbre) UnmarshalText(b []byte) error {
	v, err := ParseTimbre(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
