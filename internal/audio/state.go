package audio

import "errors"

// Common errors for playback.
var (
	// ErrInterrupted is returned by Play when a newer note took over the
	// device before this one finished.
	ErrInterrupted = errors.New("playback interrupted")

	// ErrPlayerClosed is returned once Close has been called.
	ErrPlayerClosed = errors.New("player is closed")

	// ErrFormatMismatch is returned when a waveform's sample rate differs
	// from the device's.
	ErrFormatMismatch = errors.New("audio format mismatch")

	// ErrEmptyAudio is returned for waveforms without samples.
	ErrEmptyAudio = errors.New("audio data is empty")
)

// PlayerState represents the current state of a player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

// String returns a string representation of the player state.
func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
