package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/keypiano/internal/synth"
)

// MockPlayer simulates playback without an audio device. It follows the
// same one-note-at-a-time rules as Player.
type MockPlayer struct {
	state atomic.Int32 // PlayerState

	// Played waveforms in call order
	played []synth.Waveform

	// Cancels the note in flight
	interrupt chan struct{}

	callbacks MockCallbacks

	mu sync.Mutex

	// Test configuration
	sampleRate  int
	delayFactor float64 // 0 returns immediately, 1 is real time
	failWith    error

	// Metrics for testing
	playCount      atomic.Int64
	interruptCount atomic.Int64
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnPlay func(w synth.Waveform)
	OnStop func()
}

// DefaultMockPlayer returns a mock that accepts 44100 Hz audio and
// finishes every note immediately.
func DefaultMockPlayer() *MockPlayer {
	mp := &MockPlayer{sampleRate: 44100}
	mp.state.Store(int32(StateStopped))
	return mp
}

// NewMockPlayer creates a mock with custom callbacks.
func NewMockPlayer(callbacks MockCallbacks) *MockPlayer {
	mp := DefaultMockPlayer()
	mp.callbacks = callbacks
	return mp
}

// SetDelayFactor scales the simulated note duration.
func (mp *MockPlayer) SetDelayFactor(f float64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.delayFactor = f
}

// FailWith makes every subsequent Play return err.
func (mp *MockPlayer) FailWith(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.failWith = err
}

// Play records w and blocks for its simulated duration.
func (mp *MockPlayer) Play(ctx context.Context, w synth.Waveform) error {
	mp.mu.Lock()

	if PlayerState(mp.state.Load()) == StateClosed {
		mp.mu.Unlock()
		return ErrPlayerClosed
	}
	if mp.failWith != nil {
		err := mp.failWith
		mp.mu.Unlock()
		return err
	}
	if w.Len() == 0 {
		mp.mu.Unlock()
		return ErrEmptyAudio
	}
	if w.SampleRate != mp.sampleRate {
		mp.mu.Unlock()
		return ErrFormatMismatch
	}

	if mp.interrupt != nil {
		close(mp.interrupt)
		mp.interruptCount.Add(1)
	}
	interrupt := make(chan struct{})
	mp.interrupt = interrupt

	mp.played = append(mp.played, w)
	mp.playCount.Add(1)
	mp.state.Store(int32(StatePlaying))
	delay := time.Duration(float64(w.Duration()) * mp.delayFactor)
	onPlay := mp.callbacks.OnPlay
	mp.mu.Unlock()

	if onPlay != nil {
		onPlay(w)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	var err error
	select {
	case <-timer.C:
	case <-interrupt:
		return ErrInterrupted
	case <-ctx.Done():
		err = ctx.Err()
	}

	mp.mu.Lock()
	if mp.interrupt == interrupt {
		mp.interrupt = nil
		if PlayerState(mp.state.Load()) == StatePlaying {
			mp.state.Store(int32(StateStopped))
		}
	}
	mp.mu.Unlock()

	return err
}

// Stop interrupts the note in flight.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.interrupt != nil {
		close(mp.interrupt)
		mp.interrupt = nil
	}
	if PlayerState(mp.state.Load()) == StatePlaying {
		mp.state.Store(int32(StateStopped))
	}
	if mp.callbacks.OnStop != nil {
		mp.callbacks.OnStop()
	}
	return nil
}

// Close stops playback and rejects further calls.
func (mp *MockPlayer) Close() error {
	if PlayerState(mp.state.Load()) == StateClosed {
		return errors.New("player already closed")
	}
	_ = mp.Stop()
	mp.state.Store(int32(StateClosed))
	return nil
}

// IsPlaying returns whether a simulated note is in flight.
func (mp *MockPlayer) IsPlaying() bool {
	return PlayerState(mp.state.Load()) == StatePlaying
}

// Played returns a copy of the recorded waveforms.
func (mp *MockPlayer) Played() []synth.Waveform {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]synth.Waveform, len(mp.played))
	copy(out, mp.played)
	return out
}

// PlayCount returns how many notes were started.
func (mp *MockPlayer) PlayCount() int64 { return mp.playCount.Load() }

// InterruptCount returns how many notes were cut short by a newer one.
func (mp *MockPlayer) InterruptCount() int64 { return mp.interruptCount.Load() }
