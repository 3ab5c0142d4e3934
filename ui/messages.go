package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/keypiano/internal/audio"
	"github.com/dgnsrekt/keypiano/internal/cache"
	"github.com/dgnsrekt/keypiano/internal/notes"
)

// buildStartedMsg moves the UI into the building state.
type buildStartedMsg struct{}

// buildProgressMsg is sent after each note of the initial build.
type buildProgressMsg cache.Progress

// buildDoneMsg is sent when the build worker returns.
type buildDoneMsg struct {
	result cache.BuildResult
	err    error
}

// playDoneMsg is sent when a note finished, was interrupted or failed.
type playDoneMsg struct {
	note notes.Note
	err  error
}

// watchStartedMsg carries the cache event stream once watching began.
type watchStartedMsg struct {
	events <-chan cache.Event
}

// cacheEventMsg is a change to a cache entry on disk.
type cacheEventMsg cache.Event

// statsMsg carries the cache size shown in the footer.
type statsMsg cache.Stats

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// buildCmd runs the whole build and closes progress when it returns.
func buildCmd(ctx context.Context, c NoteCache, progress chan cache.Progress) tea.Cmd {
	return func() tea.Msg {
		defer close(progress)
		res, err := c.Build(ctx, progress)
		return buildDoneMsg{result: res, err: err}
	}
}

// waitForProgress delivers the next progress event. It must be re-issued
// after every buildProgressMsg.
func waitForProgress(progress <-chan cache.Progress) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-progress
		if !ok {
			return nil
		}
		return buildProgressMsg(p)
	}
}

// playNoteCmd plays a note from the cache. Being cut off by a newer note
// is not reported as an error.
func playNoteCmd(ctx context.Context, c NoteCache, n notes.Note) tea.Cmd {
	return func() tea.Msg {
		err := c.Play(ctx, n.Name)
		if errors.Is(err, audio.ErrInterrupted) || errors.Is(err, context.Canceled) {
			err = nil
		}
		return playDoneMsg{note: n, err: err}
	}
}

// stopCmd silences the sounding note. The interrupted play reports back
// through its own playDoneMsg.
func stopCmd(c NoteCache) tea.Cmd {
	return func() tea.Msg {
		if err := c.Stop(); err != nil {
			log.Warn("unable to stop playback", "error", err)
		}
		return nil
	}
}

// watchCacheCmd starts watching the cache directory.
func watchCacheCmd(ctx context.Context, c NoteCache) tea.Cmd {
	return func() tea.Msg {
		events, err := c.Watch(ctx)
		if err != nil {
			log.Warn("unable to watch cache directory", "error", err)
			return nil
		}
		return watchStartedMsg{events: events}
	}
}

// waitForCacheEvent delivers the next cache event.
func waitForCacheEvent(events <-chan cache.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return cacheEventMsg(ev)
	}
}

func statsCmd(c NoteCache) tea.Cmd {
	return func() tea.Msg {
		s, err := c.Stats()
		if err != nil {
			log.Debug("unable to read cache stats", "error", err)
			return nil
		}
		return statsMsg(s)
	}
}
