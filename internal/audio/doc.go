// Package audio provides note playback on the system audio device using
// the oto/v3 library. Only one note sounds at a time: starting a new note
// interrupts the one in flight.
package audio
