package synth

import (
	"errors"
	"math"
	"testing"
)

func defaultParams(freq float64, timbre Timbre) Params {
	return Params{
		Frequency:  freq,
		Duration:   0.5,
		SampleRate: 44100,
		Volume:     0.5,
		Timbre:     timbre,
	}
}

// TestSynthesizeA4 checks the 440 Hz reference tone.
func TestSynthesizeA4(t *testing.T) {
	w, err := Synthesize(defaultParams(440, Piano))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if w.Len() != 22050 {
		t.Errorf("expected 22050 samples, got %d", w.Len())
	}
	if w.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", w.SampleRate)
	}
	if w.Samples[0] != 0 {
		t.Errorf("expected first sample 0, got %d", w.Samples[0])
	}
	if peak := w.Peak(); peak != MaxAmplitude {
		t.Errorf("expected peak %d, got %d", MaxAmplitude, peak)
	}
}

func TestSynthesizeLengthAndRange(t *testing.T) {
	freqs := []float64{261.63, 293.66, 329.63, 349.23, 392, 440, 493.88, 523.25,
		587.33, 659.25, 698.46, 783.99, 880, 987.77, 1046.5}

	for _, timbre := range []Timbre{Piano, Organ} {
		for _, f := range freqs {
			p := defaultParams(f, timbre)
			w, err := Synthesize(p)
			if err != nil {
				t.Fatalf("Synthesize(%v, %s): %v", f, timbre, err)
			}
			if w.Len() != int(math.Round(float64(p.SampleRate)*p.Duration)) {
				t.Errorf("%v %s: wrong length %d", f, timbre, w.Len())
			}
			if w.Peak() != MaxAmplitude {
				t.Errorf("%v %s: peak %d, want %d", f, timbre, w.Peak(), MaxAmplitude)
			}
			for i, s := range w.Samples {
				if s < -MaxAmplitude {
					t.Fatalf("%v %s: sample %d out of range: %d", f, timbre, i, s)
				}
			}
		}
	}
}

func TestTimbresDifferOnlyInCarrier(t *testing.T) {
	piano := defaultParams(329.63, Piano)
	organ := defaultParams(329.63, Organ)

	ps, err := Signal(piano)
	if err != nil {
		t.Fatal(err)
	}
	osig, err := Signal(organ)
	if err != nil {
		t.Fatal(err)
	}

	step := piano.Duration / float64(len(ps))
	differs := false
	for i := range ps {
		tm := float64(i) * step
		ph := ps[i] - carrier(piano, tm)
		oh := osig[i] - carrier(organ, tm)
		if math.Abs(ph-oh) > 1e-12 {
			t.Fatalf("harmonics differ at sample %d: %v vs %v", i, ph, oh)
		}
		if ps[i] != osig[i] {
			differs = true
		}
	}
	if !differs {
		t.Error("expected piano and organ signals to differ")
	}
}

func TestOrganCarrierIsSquare(t *testing.T) {
	p := defaultParams(440, Organ)
	for _, tm := range []float64{0.0001, 0.0007, 0.0013, 0.0019} {
		c := carrier(p, tm)
		if math.Abs(c) != p.Volume {
			t.Errorf("carrier(%v) = %v, want ±%v", tm, c, p.Volume)
		}
	}
	if c := carrier(p, 0); c != 0 {
		t.Errorf("carrier(0) = %v, want 0", c)
	}
}

func TestSynthesizeSilence(t *testing.T) {
	p := defaultParams(440, Piano)
	p.Volume = 0

	w, err := Synthesize(p)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if w.Len() != 22050 {
		t.Errorf("expected 22050 samples, got %d", w.Len())
	}
	if w.Peak() != 0 {
		t.Errorf("expected silence, got peak %d", w.Peak())
	}
}

func TestSynthesizeInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero duration", func(p *Params) { p.Duration = 0 }},
		{"negative duration", func(p *Params) { p.Duration = -1 }},
		{"zero sample rate", func(p *Params) { p.SampleRate = 0 }},
		{"negative frequency", func(p *Params) { p.Frequency = -440 }},
		{"volume too loud", func(p *Params) { p.Volume = 1.5 }},
		{"bad timbre", func(p *Params) { p.Timbre = Timbre(7) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams(440, Piano)
			tt.modify(&p)
			if _, err := Synthesize(p); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestQuantizationError(t *testing.T) {
	p := defaultParams(523.25, Piano)
	signal, err := Signal(p)
	if err != nil {
		t.Fatal(err)
	}
	w, err := Synthesize(p)
	if err != nil {
		t.Fatal(err)
	}

	peak := 0.0
	for _, s := range signal {
		peak = math.Max(peak, math.Abs(s))
	}
	for i, s := range signal {
		want := s * MaxAmplitude / peak
		if diff := math.Abs(want - float64(w.Samples[i])); diff >= 1 {
			t.Fatalf("sample %d: quantization error %v", i, diff)
		}
	}
}

func TestParseTimbre(t *testing.T) {
	tests := []struct {
		in      string
		want    Timbre
		wantErr bool
	}{
		{"piano", Piano, false},
		{"Organ", Organ, false},
		{" ORGAN ", Organ, false},
		{"harpsichord", Piano, true},
	}

	for _, tt := range tests {
		got, err := ParseTimbre(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTimbre(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseTimbre(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestWaveformPCM(t *testing.T) {
	w := Waveform{Samples: []int16{0, 1, -1, MaxAmplitude, -MaxAmplitude}, SampleRate: 44100}
	pcm := w.PCM()
	if len(pcm) != 10 {
		t.Fatalf("expected 10 bytes, got %d", len(pcm))
	}
	if pcm[2] != 0x01 || pcm[3] != 0x00 {
		t.Errorf("expected little-endian 1, got % x", pcm[2:4])
	}

	back := FromPCM(pcm, 44100)
	for i := range w.Samples {
		if back.Samples[i] != w.Samples[i] {
			t.Errorf("sample %d: got %d, want %d", i, back.Samples[i], w.Samples[i])
		}
	}
	if d := (Waveform{Samples: make([]int16, 22050), SampleRate: 44100}).Duration(); d.Milliseconds() != 500 {
		t.Errorf("expected 500ms, got %v", d)
	}
}
