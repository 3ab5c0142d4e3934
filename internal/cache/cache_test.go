package cache

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/keypiano/internal/audio"
	"github.com/dgnsrekt/keypiano/internal/config"
	"github.com/dgnsrekt/keypiano/internal/notes"
	"github.com/dgnsrekt/keypiano/internal/synth"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.CacheDir = filepath.Join(t.TempDir(), "piano_cache")
	return cfg
}

func newTestCache(t *testing.T, cfg config.Config) (*NoteCache, *audio.MockPlayer) {
	t.Helper()
	player := audio.DefaultMockPlayer()
	c, err := New(cfg, notes.Default(), player)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, player
}

// build runs Build and returns every progress event it sent.
func build(t *testing.T, c *NoteCache) (BuildResult, []Progress) {
	t.Helper()
	ch := make(chan Progress, c.table.Len())
	res, err := c.Build(context.Background(), ch)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	close(ch)

	var events []Progress
	for p := range ch {
		events = append(events, p)
	}
	return res, events
}

func TestNewCreatesDirectory(t *testing.T) {
	cfg := testConfig(t)
	newTestCache(t, cfg)

	info, err := os.Stat(cfg.CacheDir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected cache dir to exist: %v", err)
	}

	// Idempotent
	newTestCache(t, cfg)
}

func TestBuildWritesEveryNote(t *testing.T) {
	c, _ := newTestCache(t, testConfig(t))

	res, events := build(t, c)

	if res.Written != 15 || res.Skipped != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(events) != 15 {
		t.Fatalf("expected 15 progress events, got %d", len(events))
	}
	for i, p := range events {
		if p.Done != i+1 || p.Total != 15 {
			t.Errorf("event %d: got %+v", i, p)
		}
	}
	if !events[14].Complete() || events[14].Percent() != 1 {
		t.Errorf("expected final event to be complete: %+v", events[14])
	}
	// Sequential build keeps table order
	if events[0].Note != "C4" || events[14].Note != "C6" {
		t.Errorf("unexpected note order: %s ... %s", events[0].Note, events[14].Note)
	}

	if missing := c.Missing(); len(missing) != 0 {
		t.Errorf("expected no missing entries, got %v", missing)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Entries != 15 || stats.Bytes <= 15*22050*2 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if _, err := os.Stat(filepath.Join(c.Dir(), manifestFile)); err != nil {
		t.Errorf("expected manifest: %v", err)
	}
}

func TestBuildWithWorkersKeepsProgressOrdered(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workers = 4
	c, _ := newTestCache(t, cfg)

	_, events := build(t, c)

	seen := make(map[string]bool)
	for i, p := range events {
		if p.Done != i+1 {
			t.Errorf("event %d: Done = %d", i, p.Done)
		}
		seen[p.Note] = true
	}
	if len(seen) != 15 {
		t.Errorf("expected 15 distinct notes, got %d", len(seen))
	}
}

func TestPlayBeforeBuild(t *testing.T) {
	c, player := newTestCache(t, testConfig(t))

	err := c.Play(context.Background(), "C4")
	if !errors.Is(err, ErrMissingEntry) {
		t.Fatalf("expected ErrMissingEntry, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped fs.ErrNotExist, got %v", err)
	}
	if player.PlayCount() != 0 {
		t.Error("nothing should have been played")
	}
}

func TestPlayEveryNoteAfterBuild(t *testing.T) {
	c, player := newTestCache(t, testConfig(t))
	build(t, c)

	for _, n := range notes.Default().Notes() {
		if err := c.Play(context.Background(), n.Name); err != nil {
			t.Errorf("Play(%s): %v", n.Name, err)
		}
	}

	played := player.Played()
	if len(played) != 15 {
		t.Fatalf("expected 15 plays, got %d", len(played))
	}
	for _, w := range played {
		if w.Len() != 22050 || w.SampleRate != 44100 {
			t.Errorf("unexpected waveform: %d samples at %d Hz", w.Len(), w.SampleRate)
		}
	}
}

func TestKeyPlaysMatchingEntry(t *testing.T) {
	c, player := newTestCache(t, testConfig(t))
	build(t, c)

	n, ok := notes.Default().ByKey('a')
	if !ok {
		t.Fatal("key a not in table")
	}
	if filepath.Base(c.Path(n.Name)) != "C4.wav" {
		t.Fatalf("unexpected entry path %s", c.Path(n.Name))
	}

	if err := c.Play(context.Background(), n.Name); err != nil {
		t.Fatalf("Play: %v", err)
	}

	want, err := synth.Synthesize(c.cfg.Params(261.63))
	if err != nil {
		t.Fatal(err)
	}
	got := player.Played()[0]
	if got.Len() != want.Len() {
		t.Fatalf("length mismatch: %d vs %d", got.Len(), want.Len())
	}
	for i := range want.Samples {
		if got.Samples[i] != want.Samples[i] {
			t.Fatalf("sample %d: got %d, want %d", i, got.Samples[i], want.Samples[i])
		}
	}
}

func TestSecondBuildSkipsCurrentEntries(t *testing.T) {
	cfg := testConfig(t)
	c, _ := newTestCache(t, cfg)
	build(t, c)

	before, err := os.Stat(c.Path("A4"))
	if err != nil {
		t.Fatal(err)
	}

	// A fresh cache instance reads the manifest from disk
	c2, _ := newTestCache(t, cfg)
	res, events := build(t, c2)
	if res.Written != 0 || res.Skipped != 15 {
		t.Errorf("expected everything skipped, got %+v", res)
	}
	if len(events) != 15 || !events[0].Skipped {
		t.Errorf("expected 15 skipped progress events, got %+v", events)
	}

	after, err := os.Stat(c.Path("A4"))
	if err != nil {
		t.Fatal(err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Error("entry was rewritten")
	}
}

func TestBuildRegeneratesStaleEntries(t *testing.T) {
	cfg := testConfig(t)
	c, _ := newTestCache(t, cfg)
	build(t, c)

	organ := cfg
	organ.Timbre = synth.Organ
	c2, _ := newTestCache(t, organ)
	if res, _ := build(t, c2); res.Written != 15 {
		t.Errorf("expected timbre change to rewrite all entries, got %+v", res)
	}

	forced := organ
	forced.Rebuild = true
	c3, _ := newTestCache(t, forced)
	if res, _ := build(t, c3); res.Written != 15 {
		t.Errorf("expected rebuild to rewrite all entries, got %+v", res)
	}
}

func TestBuildRestoresDeletedEntry(t *testing.T) {
	cfg := testConfig(t)
	c, _ := newTestCache(t, cfg)
	build(t, c)

	if err := os.Remove(c.Path("E5")); err != nil {
		t.Fatal(err)
	}

	res, _ := build(t, c)
	if res.Written != 1 || res.Skipped != 14 {
		t.Errorf("expected only E5 rewritten, got %+v", res)
	}
}

func TestBuildRepairsTruncatedEntry(t *testing.T) {
	cfg := testConfig(t)
	c, _ := newTestCache(t, cfg)
	build(t, c)

	full, err := c.Load("C4")
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(c.Path("C4"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(c.Path("C4"), info.Size()/2); err != nil {
		t.Fatal(err)
	}

	// A fresh cache instance trusts only the manifest and the file
	c2, _ := newTestCache(t, cfg)
	if _, err := c2.Load("C4"); !errors.Is(err, ErrCorruptEntry) {
		t.Fatalf("expected ErrCorruptEntry for truncated entry, got %v", err)
	}

	res, _ := build(t, c2)
	if res.Written != 1 || res.Skipped != 14 {
		t.Errorf("expected only C4 rewritten, got %+v", res)
	}

	repaired, err := c2.Load("C4")
	if err != nil {
		t.Fatalf("Load after rebuild: %v", err)
	}
	if repaired.Len() != full.Len() {
		t.Errorf("expected %d samples after rebuild, got %d", full.Len(), repaired.Len())
	}
}

func TestBuildCancelled(t *testing.T) {
	c, _ := newTestCache(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Build(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoadCorruptEntry(t *testing.T) {
	c, _ := newTestCache(t, testConfig(t))

	if err := os.WriteFile(c.Path("C4"), []byte("not a wav file"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Load("C4"); !errors.Is(err, ErrCorruptEntry) {
		t.Errorf("expected ErrCorruptEntry, got %v", err)
	}
}

func TestLoadUnknownNote(t *testing.T) {
	c, _ := newTestCache(t, testConfig(t))

	if _, err := c.Load("H9"); !errors.Is(err, ErrUnknownNote) {
		t.Errorf("expected ErrUnknownNote, got %v", err)
	}
}

func TestPlayPropagatesSinkError(t *testing.T) {
	c, player := newTestCache(t, testConfig(t))
	build(t, c)

	player.FailWith(audio.ErrPlayerClosed)
	if err := c.Play(context.Background(), "C4"); !errors.Is(err, audio.ErrPlayerClosed) {
		t.Errorf("expected sink error, got %v", err)
	}
}

func TestStopInterruptsPlayback(t *testing.T) {
	cfg := testConfig(t)
	stopped := make(chan struct{}, 1)
	player := audio.NewMockPlayer(audio.MockCallbacks{
		OnStop: func() { stopped <- struct{}{} },
	})
	player.SetDelayFactor(1)

	c, err := New(cfg, notes.Default(), player)
	if err != nil {
		t.Fatal(err)
	}
	build(t, c)

	result := make(chan error, 1)
	go func() { result <- c.Play(context.Background(), "G4") }()

	deadline := time.Now().Add(time.Second)
	for !player.IsPlaying() {
		if time.Now().After(deadline) {
			t.Fatal("note never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case err := <-result:
		if !errors.Is(err, audio.ErrInterrupted) {
			t.Errorf("expected ErrInterrupted, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Play did not return after Stop")
	}
	select {
	case <-stopped:
	default:
		t.Error("expected the sink to be stopped")
	}
}

func TestStopWithoutSink(t *testing.T) {
	c, err := New(testConfig(t), notes.Default(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Stop(); err != nil {
		t.Errorf("Stop without a sink should be a no-op, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	cfg := config.Default()
	a := Fingerprint(cfg.Params(440))
	if a != Fingerprint(cfg.Params(440)) {
		t.Error("fingerprint is not stable")
	}
	if a == Fingerprint(cfg.Params(441)) {
		t.Error("fingerprint ignores frequency")
	}
	cfg.Volume = 0.4
	if a == Fingerprint(cfg.Params(440)) {
		t.Error("fingerprint ignores volume")
	}
}

func TestWatchReportsRemoval(t *testing.T) {
	c, _ := newTestCache(t, testConfig(t))
	build(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.Remove(c.Path("G4")); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("watch channel closed early")
			}
			if ev.Name == "G4" && ev.Kind == EntryRemoved {
				return
			}
		case <-timeout:
			t.Fatal("timed out waiting for removal event")
		}
	}
}
