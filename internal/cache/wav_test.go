package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgnsrekt/keypiano/internal/synth"
)

func TestWAVRoundTrip(t *testing.T) {
	want, err := synth.Synthesize(synth.Params{
		Frequency:  440,
		Duration:   0.5,
		SampleRate: 44100,
		Volume:     0.5,
		Timbre:     synth.Organ,
	})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "A4.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, want); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// 44-byte canonical header plus 2 bytes per sample
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(44+want.Len()*2) {
		t.Errorf("unexpected file size %d", info.Size())
	}

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	got, err := DecodeWAV(r)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if got.SampleRate != want.SampleRate || got.Len() != want.Len() {
		t.Fatalf("got %d samples at %d Hz, want %d at %d Hz",
			got.Len(), got.SampleRate, want.Len(), want.SampleRate)
	}
	for i := range want.Samples {
		if got.Samples[i] != want.Samples[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got.Samples[i], want.Samples[i])
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("RIFF????WAVEjunk"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := DecodeWAV(f); !errors.Is(err, ErrCorruptEntry) {
		t.Errorf("expected ErrCorruptEntry, got %v", err)
	}
}

func TestDecodeWAVRejectsTruncatedData(t *testing.T) {
	w, err := synth.Synthesize(synth.Params{
		Frequency:  261.63,
		Duration:   0.5,
		SampleRate: 44100,
		Volume:     0.5,
		Timbre:     synth.Piano,
	})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "C4.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, w); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	// Header intact, half of the samples gone
	if err := os.Truncate(path, int64(wavHeaderSize+w.Len())); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if got, err := DecodeWAV(r); !errors.Is(err, ErrCorruptEntry) {
		t.Errorf("expected ErrCorruptEntry, got %d samples and %v", got.Len(), err)
	}
}

func TestEntrySizeMatchesEncoder(t *testing.T) {
	p := synth.Params{Frequency: 440, Duration: 0.25, SampleRate: 48000, Volume: 1, Timbre: synth.Organ}
	w, err := synth.Synthesize(p)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "A4.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, w); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != entrySize(p) {
		t.Errorf("entrySize = %d, file is %d bytes", entrySize(p), info.Size())
	}
}
