// Package synth renders the short tones played by the piano: a sine or
// square carrier plus fixed harmonics, normalized to the full signed 16-bit
// range.
package synth
