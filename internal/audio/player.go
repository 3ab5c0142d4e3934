package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/keypiano/internal/synth"
	"github.com/ebitengine/oto/v3"
)

// drainPollInterval is how often Play checks whether the device has
// finished the current note.
const drainPollInterval = 10 * time.Millisecond

// Player plays waveforms through an oto context that is created once and
// reused for the lifetime of the process.
type Player struct {
	context *oto.Context

	// Current playback; guarded by mu
	current *playback
	mu      sync.Mutex

	state  atomic.Int32  // PlayerState
	volume atomic.Uint64 // math.Float64bits

	// Configuration
	sampleRate int
	channels   int
}

// playback is one note on the device. The stream keeps the PCM data alive
// until oto is done reading it.
type playback struct {
	player      *oto.Player
	stream      *AudioStream
	done        chan struct{}
	once        sync.Once
	interrupted atomic.Bool
}

func (pb *playback) finish(interrupted bool) {
	pb.once.Do(func() {
		pb.interrupted.Store(interrupted)
		pb.player.Pause()
		_ = pb.player.Close()
		pb.stream.Close()
		close(pb.done)
	})
}

func (pb *playback) result() error {
	if pb.interrupted.Load() {
		return ErrInterrupted
	}
	return nil
}

// AudioStream holds the PCM bytes handed to oto.
type AudioStream struct {
	data   []byte
	reader io.ReadSeeker

	closeOnce sync.Once
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int     // 44100 or 48000 Hz only
	Channels   int     // 1 = mono, 2 = stereo
	BitDepth   int     // 16 bits per sample
	BufferSize int     // device buffer in bytes
	Volume     float64 // initial device volume, 0.0 to 1.0
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1,
		BitDepth:   16,
		BufferSize: 4096,
		Volume:     1.0,
	}
}

// NewPlayer opens the audio device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferDuration(config),
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	p := &Player{
		context:    ctx,
		sampleRate: config.SampleRate,
		channels:   config.Channels,
	}
	p.state.Store(int32(StateStopped))
	if err := p.SetVolume(config.Volume); err != nil {
		return nil, err
	}

	log.Debug("audio device ready", "sampleRate", config.SampleRate, "channels", config.Channels)
	return p, nil
}

func validateConfig(config PlayerConfig) error {
	// OTO only supports specific sample rates reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}

	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}

	if config.BitDepth != 16 {
		return fmt.Errorf("bit depth must be 16, got %d", config.BitDepth)
	}

	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}

	if config.Volume < 0 || config.Volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", config.Volume)
	}

	return nil
}

// bufferDuration converts a buffer size in bytes into the latency oto
// expects.
func bufferDuration(config PlayerConfig) time.Duration {
	bytesPerSecond := config.SampleRate * config.Channels * config.BitDepth / 8
	return time.Duration(config.BufferSize) * time.Second / time.Duration(bytesPerSecond)
}

// Play sends w to the device and blocks until it has been fully played.
// A note already playing is interrupted first; its Play call returns
// ErrInterrupted. Cancelling ctx stops this note and returns ctx.Err().
func (p *Player) Play(ctx context.Context, w synth.Waveform) error {
	if w.Len() == 0 {
		return ErrEmptyAudio
	}
	if w.SampleRate != p.sampleRate {
		return fmt.Errorf("%w: waveform is %d Hz, device is %d Hz", ErrFormatMismatch, w.SampleRate, p.sampleRate)
	}

	pb, err := p.start(w)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.finish(pb, false)
			return ctx.Err()
		case <-pb.done:
			return pb.result()
		case <-ticker.C:
			select {
			case <-pb.done:
				return pb.result()
			default:
			}
			if pb.player.IsPlaying() {
				continue
			}
			err := pb.player.Err()
			p.finish(pb, false)
			if err != nil {
				return fmt.Errorf("playback failed: %w", err)
			}
			return nil
		}
	}
}

// start interrupts the current note and begins w.
func (p *Player) start(w synth.Waveform) (*playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if PlayerState(p.state.Load()) == StateClosed {
		return nil, ErrPlayerClosed
	}

	if p.current != nil {
		p.current.finish(true)
		p.current = nil
	}

	stream := p.createAudioStream(w)
	player := p.context.NewPlayer(stream.reader)
	player.SetVolume(p.getVolume())

	pb := &playback{
		player: player,
		stream: stream,
		done:   make(chan struct{}),
	}
	p.current = pb

	player.Play()
	p.state.Store(int32(StatePlaying))

	return pb, nil
}

// finish ends pb and, if it is still the current note, clears the slot.
func (p *Player) finish(pb *playback, interrupted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pb.finish(interrupted)
	if p.current == pb {
		p.current = nil
		if PlayerState(p.state.Load()) != StateClosed {
			p.state.Store(int32(StateStopped))
		}
	}
}

// createAudioStream copies w into a byte stream laid out for the device.
func (p *Player) createAudioStream(w synth.Waveform) *AudioStream {
	data := w.PCM()
	if p.channels == 2 {
		data = monoToStereo(data)
	}

	return &AudioStream{
		data:   data,
		reader: bytes.NewReader(data),
	}
}

// monoToStereo duplicates every 16-bit sample into both channels.
func monoToStereo(mono []byte) []byte {
	stereo := make([]byte, 0, len(mono)*2)
	for i := 0; i+1 < len(mono); i += 2 {
		stereo = append(stereo, mono[i], mono[i+1], mono[i], mono[i+1])
	}
	return stereo
}

// Stop silences the current note, if any.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		p.current.finish(true)
		p.current = nil
	}
	if PlayerState(p.state.Load()) != StateClosed {
		p.state.Store(int32(StateStopped))
	}
	return nil
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	p.volume.Store(math.Float64bits(volume))

	p.mu.Lock()
	if p.current != nil {
		p.current.player.SetVolume(volume)
	}
	p.mu.Unlock()

	return nil
}

func (p *Player) getVolume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// Close stops playback and marks the player unusable.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		p.current.finish(true)
		p.current = nil
	}

	// oto.Context has no Close method in v3; it lives until process exit.
	p.state.Store(int32(StateClosed))
	return nil
}

// Close releases the stream data.
func (s *AudioStream) Close() {
	s.closeOnce.Do(func() {
		s.data = nil
		s.reader = nil
	})
}
