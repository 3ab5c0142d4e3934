package cache

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watch reports changes to note entries made by anyone, including other
// processes, until ctx is done. The returned channel is closed when the
// watcher stops.
func (c *NoteCache) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}
	if err := watcher.Add(c.cfg.CacheDir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
	}

	log.Debug("fsnotify watching dir", "dir", c.cfg.CacheDir)

	events := make(chan Event)
	go func() {
		defer close(events)
		defer watcher.Close() //nolint:errcheck

		for {
			select {
			case <-ctx.Done():
				log.Debug("fsnotify dir unwatched", "dir", c.cfg.CacheDir)
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name, ok := c.noteForFile(event.Name)
				if !ok {
					continue
				}

				var kind EventKind
				switch {
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					kind = EntryRemoved
				case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
					kind = EntryWritten
				default:
					continue
				}

				c.memory.remove(name)
				log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
				select {
				case events <- Event{Name: name, Kind: kind}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Debug("fsnotify error", "dir", c.cfg.CacheDir, "error", err)
			}
		}
	}()

	return events, nil
}
