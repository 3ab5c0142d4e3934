package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/keypiano/internal/config"
	"github.com/dgnsrekt/keypiano/internal/notes"
	"github.com/dgnsrekt/keypiano/internal/synth"
	"golang.org/x/sync/errgroup"
)

// NoteCache keeps one rendered WAV file per note in a flat directory.
type NoteCache struct {
	cfg   config.Config
	table notes.Table
	sink  Sink

	// Fingerprints of the entries on disk
	manifest *manifest
	mu       sync.Mutex

	// Decoded entries
	memory *memoryCache
}

// New creates the cache directory if needed and loads its manifest. sink
// may be nil when the cache is only built, never played.
func New(cfg config.Config, table notes.Table, sink Sink) (*NoteCache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	m, err := loadManifest(cfg.CacheDir)
	if err != nil {
		// Non-fatal: every entry is treated as stale
		log.Warn("ignoring unreadable cache manifest", "dir", cfg.CacheDir, "error", err)
		m = newManifest()
	}

	return &NoteCache{
		cfg:      cfg,
		table:    table,
		sink:     sink,
		manifest: m,
		memory:   newMemoryCache(defaultMemoryCapacity),
	}, nil
}

// Dir returns the cache directory.
func (c *NoteCache) Dir() string { return c.cfg.CacheDir }

// Path returns the file a note's entry is stored in.
func (c *NoteCache) Path(name string) string {
	return filepath.Join(c.cfg.CacheDir, name+wavEntryExt)
}

// Build renders every note in the table and writes it to the cache,
// sending one Progress per note to progress (which may be nil). Entries
// already rendered from the same parameters are kept unless the config asks
// for a rebuild. Done values arrive in increasing order even with several
// workers. The first failure cancels the remaining work and is returned.
func (c *NoteCache) Build(ctx context.Context, progress chan<- Progress) (BuildResult, error) {
	all := c.table.Notes()
	total := len(all)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	var (
		mu     sync.Mutex
		done   int
		result BuildResult
	)

	log.Debug("building note cache", "dir", c.cfg.CacheDir, "notes", total,
		"timbre", c.cfg.Timbre, "workers", c.cfg.Workers, "rebuild", c.cfg.Rebuild)

	for _, n := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			skipped, err := c.buildNote(n)
			if err != nil {
				return fmt.Errorf("note %s: %w", n.Name, err)
			}

			mu.Lock()
			defer mu.Unlock()

			done++
			if skipped {
				result.Skipped++
			} else {
				result.Written++
			}

			if progress == nil {
				return nil
			}
			select {
			case progress <- Progress{Done: done, Total: total, Note: n.Name, Skipped: skipped}:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	c.mu.Lock()
	err := c.manifest.save(c.cfg.CacheDir)
	c.mu.Unlock()
	if err != nil {
		return result, fmt.Errorf("failed to write cache manifest: %w", err)
	}

	log.Debug("note cache built", "written", result.Written, "skipped", result.Skipped)
	return result, nil
}

// buildNote renders one note unless its entry is current.
func (c *NoteCache) buildNote(n notes.Note) (skipped bool, err error) {
	params := c.cfg.Params(n.Frequency)
	fp := Fingerprint(params)
	path := c.Path(n.Name)

	if !c.cfg.Rebuild && c.isCurrent(n.Name, fp) {
		info, err := os.Stat(path)
		switch {
		case err != nil:
		case info.Size() != entrySize(params):
			log.Warn("re-rendering damaged cache entry", "note", n.Name, "size", info.Size(), "want", entrySize(params))
		default:
			log.Debug("cache entry up to date", "note", n.Name)
			return true, nil
		}
	}

	w, err := synth.Synthesize(params)
	if err != nil {
		return false, err
	}

	if err := writeFile(path, func(f *os.File) error { return EncodeWAV(f, w) }); err != nil {
		return false, fmt.Errorf("failed to write cache file: %w", err)
	}

	c.memory.remove(n.Name)

	c.mu.Lock()
	c.manifest.Entries[n.Name] = fp
	c.mu.Unlock()

	log.Debug("cache entry written", "note", n.Name, "path", path, "samples", w.Len())
	return false, nil
}

func (c *NoteCache) isCurrent(name, fp string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manifest.Entries[name] == fp
}

// Load decodes the cache entry for the named note.
func (c *NoteCache) Load(name string) (synth.Waveform, error) {
	if _, ok := c.table.ByName(name); !ok {
		return synth.Waveform{}, fmt.Errorf("%w: %q", ErrUnknownNote, name)
	}

	f, err := os.Open(c.Path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return synth.Waveform{}, fmt.Errorf("%w: %s: %w", ErrMissingEntry, name, err)
	}
	if err != nil {
		return synth.Waveform{}, fmt.Errorf("unable to open cache entry: %w", err)
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return synth.Waveform{}, fmt.Errorf("unable to stat cache entry: %w", err)
	}
	if w, ok := c.memory.get(name, info); ok {
		return w, nil
	}

	w, err := DecodeWAV(f)
	if err != nil {
		return synth.Waveform{}, fmt.Errorf("%s: %w", name, err)
	}
	c.memory.put(name, info, w)
	return w, nil
}

// Play loads the named note and hands it to the sink, blocking until the
// sink is done with it.
func (c *NoteCache) Play(ctx context.Context, name string) error {
	if c.sink == nil {
		return errors.New("note cache has no playback sink")
	}

	w, err := c.Load(name)
	if err != nil {
		return err
	}

	log.Debug("playing note", "note", name, "duration", w.Duration())
	return c.sink.Play(ctx, w)
}

// Stop silences the note being played, if any.
func (c *NoteCache) Stop() error {
	if c.sink == nil {
		return nil
	}
	return c.sink.Stop()
}

// Missing returns the names of notes without a cache entry, in table order.
func (c *NoteCache) Missing() []string {
	var missing []string
	for _, n := range c.table.Notes() {
		if _, err := os.Stat(c.Path(n.Name)); err != nil {
			missing = append(missing, n.Name)
		}
	}
	return missing
}

// Stats counts the note entries on disk.
func (c *NoteCache) Stats() (Stats, error) {
	entries, err := os.ReadDir(c.cfg.CacheDir)
	if err != nil {
		return Stats{}, fmt.Errorf("unable to read cache directory: %w", err)
	}

	var s Stats
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := c.noteForFile(e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.Entries++
		s.Bytes += info.Size()
	}
	return s, nil
}

// noteForFile maps "C4.wav" back to "C4" if the note is in the table.
func (c *NoteCache) noteForFile(file string) (string, bool) {
	name, ok := strings.CutSuffix(filepath.Base(file), wavEntryExt)
	if !ok {
		return "", false
	}
	if _, ok := c.table.ByName(name); !ok {
		return "", false
	}
	return name, true
}

// writeFile writes through a temporary file in the same directory and
// renames it into place, so readers never see a partial entry.
func writeFile(path string, write func(*os.File) error) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tempPath := file.Name()

	if err = file.Chmod(0o644); err == nil { //nolint:gosec
		err = write(file)
	}
	closeErr := file.Close()

	if err != nil {
		os.Remove(tempPath) //nolint:errcheck
		return err
	}
	if closeErr != nil {
		os.Remove(tempPath) //nolint:errcheck
		return closeErr
	}

	return os.Rename(tempPath, path)
}
