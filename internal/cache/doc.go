// Package cache renders every note of the piano once and keeps the result
// on disk as one WAV file per note, so playback never has to synthesize.
package cache
