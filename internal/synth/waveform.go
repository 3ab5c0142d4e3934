package synth

import (
	"encoding/binary"
	"time"
)

// Waveform is a mono sequence of signed 16-bit samples at a fixed rate.
// A Waveform is not mutated once created.
type Waveform struct {
	Samples    []int16
	SampleRate int
}

// Len returns the number of samples.
func (w Waveform) Len() int { return len(w.Samples) }

// Duration returns the playback length of the waveform.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Peak returns the largest absolute sample value.
func (w Waveform) Peak() int {
	peak := 0
	for _, s := range w.Samples {
		v := int(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// PCM returns the samples as signed 16-bit little-endian bytes, the layout
// the audio device consumes.
func (w Waveform) PCM() []byte {
	buf := make([]byte, len(w.Samples)*2)
	for i, s := range w.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// FromPCM decodes signed 16-bit little-endian bytes into a Waveform. A
// trailing odd byte is ignored.
func FromPCM(data []byte, sampleRate int) Waveform {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}
