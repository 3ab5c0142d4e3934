package cache

import (
	"fmt"
	"io"

	"github.com/dgnsrekt/keypiano/internal/synth"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth   = 16
	wavChannels   = 1
	wavFormatPCM  = 1
	wavHeaderSize = 44
	wavEntryExt   = ".wav"
	manifestFile  = "manifest.yaml"
	formatVersion = 1
)

// EncodeWAV writes w as a mono 16-bit PCM WAV file.
func EncodeWAV(out io.WriteSeeker, w synth.Waveform) error {
	enc := wav.NewEncoder(out, w.SampleRate, wavBitDepth, wavChannels, wavFormatPCM)

	data := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		data[i] = int(s)
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: wavChannels, SampleRate: w.SampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("unable to encode samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("unable to finalize wav header: %w", err)
	}
	return nil
}

// entrySize is the exact file size EncodeWAV produces for p.
func entrySize(p synth.Params) int64 {
	return wavHeaderSize + int64(p.NumSamples())*wavBitDepth/8
}

// DecodeWAV reads a mono 16-bit PCM WAV file.
func DecodeWAV(in io.ReadSeeker) (synth.Waveform, error) {
	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return synth.Waveform{}, fmt.Errorf("%w: not a valid wav file", ErrCorruptEntry)
	}
	if dec.WavAudioFormat != wavFormatPCM || dec.NumChans != wavChannels || dec.BitDepth != wavBitDepth {
		return synth.Waveform{}, fmt.Errorf("%w: want %d-bit mono PCM, got format %d, %d channels, %d bits",
			ErrCorruptEntry, wavBitDepth, dec.WavAudioFormat, dec.NumChans, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return synth.Waveform{}, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}

	// The reader stops quietly at EOF, so a cut file only shows up as a
	// short data chunk
	if got := int64(len(buf.Data)) * wavBitDepth / 8; got != dec.PCMLen() {
		return synth.Waveform{}, fmt.Errorf("%w: data chunk holds %d bytes, header says %d",
			ErrCorruptEntry, got, dec.PCMLen())
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}

	return synth.Waveform{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}
