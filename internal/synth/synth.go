package synth

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned for parameters that cannot produce a tone.
var ErrInvalidArgument = errors.New("invalid argument")

// MaxAmplitude is the peak sample value after normalization.
const MaxAmplitude = math.MaxInt16

// Harmonic is an overtone mixed into every tone.
type Harmonic struct {
	Multiple int     // multiple of the fundamental
	Gain     float64 // amplitude relative to the volume
}

// Harmonics are the fixed overtones added regardless of timbre.
var Harmonics = []Harmonic{
	{Multiple: 2, Gain: 0.5},
	{Multiple: 3, Gain: 0.3},
	{Multiple: 4, Gain: 0.2},
}

// Params describes a single tone.
type Params struct {
	Frequency  float64 // fundamental in Hz
	Duration   float64 // seconds
	SampleRate int     // samples per second
	Volume     float64 // 0..1
	Timbre     Timbre
}

// Validate checks that p describes a renderable tone.
func (p Params) Validate() error {
	switch {
	case p.Frequency <= 0 || math.IsNaN(p.Frequency) || math.IsInf(p.Frequency, 0):
		return fmt.Errorf("%w: frequency must be positive, got %v", ErrInvalidArgument, p.Frequency)
	case p.Duration <= 0 || math.IsNaN(p.Duration) || math.IsInf(p.Duration, 0):
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidArgument, p.Duration)
	case p.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidArgument, p.SampleRate)
	case p.Volume < 0 || p.Volume > 1 || math.IsNaN(p.Volume):
		return fmt.Errorf("%w: volume must be between 0 and 1, got %v", ErrInvalidArgument, p.Volume)
	case p.Timbre != Piano && p.Timbre != Organ:
		return fmt.Errorf("%w: unknown timbre %d", ErrInvalidArgument, int(p.Timbre))
	}
	return nil
}

// NumSamples returns round(SampleRate * Duration).
func (p Params) NumSamples() int {
	return int(math.Round(float64(p.SampleRate) * p.Duration))
}

// Signal returns the unnormalized signal: carrier plus harmonics, sampled
// at n evenly spaced points over [0, Duration).
func Signal(p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := p.NumSamples()
	out := make([]float64, n)
	step := p.Duration / float64(n)
	for i := range out {
		t := float64(i) * step
		out[i] = carrier(p, t) + harmonics(p, t)
	}
	return out, nil
}

// Synthesize renders the tone described by p as a normalized Waveform.
// The loudest sample maps to ±MaxAmplitude; values are truncated toward
// zero. An all-zero signal (volume 0) yields silence.
func Synthesize(p Params) (Waveform, error) {
	signal, err := Signal(p)
	if err != nil {
		return Waveform{}, err
	}
	return Waveform{
		Samples:    Quantize(signal),
		SampleRate: p.SampleRate,
	}, nil
}

// Quantize scales signal so its peak magnitude becomes MaxAmplitude and
// converts it to int16.
func Quantize(signal []float64) []int16 {
	peak := 0.0
	for _, s := range signal {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}

	out := make([]int16, len(signal))
	if peak == 0 {
		return out
	}

	for i, s := range signal {
		switch {
		case s == peak:
			out[i] = MaxAmplitude
		case s == -peak:
			out[i] = -MaxAmplitude
		default:
			out[i] = int16(s * MaxAmplitude / peak)
		}
	}
	return out
}

func carrier(p Params, t float64) float64 {
	x := math.Sin(2 * math.Pi * p.Frequency * t)
	if p.Timbre == Organ {
		x = sign(x)
	}
	return p.Volume * x
}

func harmonics(p Params, t float64) float64 {
	var sum float64
	for _, h := range Harmonics {
		sum += p.Volume * h.Gain * math.Sin(2*math.Pi*float64(h.Multiple)*p.Frequency*t)
	}
	return sum
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
