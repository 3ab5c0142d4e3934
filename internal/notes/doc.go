// Package notes defines the fixed keyboard-to-note table played by the
// piano. The table is an ordered list; lookups by key and by name are
// provided on top of it.
package notes
