package cache

import (
	"container/list"
	"io/fs"
	"sync"
	"time"

	"github.com/dgnsrekt/keypiano/internal/synth"
)

// defaultMemoryCapacity holds every note of the default table several
// times over.
const defaultMemoryCapacity = 8 << 20

// memoryCache keeps decoded entries in memory with LRU eviction, so a
// repeated key press skips the WAV decode. An entry is only served while
// the file it was decoded from is unchanged.
type memoryCache struct {
	capacity int64 // Maximum size in bytes
	size     int64 // Current size in bytes

	// LRU implementation
	items    map[string]*list.Element
	eviction *list.List

	mu sync.Mutex

	stats memoryStats
}

type memoryStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

type memoryEntry struct {
	name     string
	waveform synth.Waveform
	size     int64

	// Identity of the file on disk
	modTime  time.Time
	fileSize int64
}

func newMemoryCache(capacity int64) *memoryCache {
	return &memoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// get returns the waveform decoded from the file described by info.
func (c *memoryCache) get(name string, info fs.FileInfo) (synth.Waveform, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[name]
	if !ok {
		c.stats.Misses++
		return synth.Waveform{}, false
	}

	entry := elem.Value.(*memoryEntry)
	if !entry.modTime.Equal(info.ModTime()) || entry.fileSize != info.Size() {
		// Rewritten since it was decoded
		c.removeElement(elem)
		c.stats.Misses++
		return synth.Waveform{}, false
	}

	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	return entry.waveform, true
}

func (c *memoryCache) put(name string, info fs.FileInfo, w synth.Waveform) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(w.Samples)) * 2
	if size > c.capacity {
		return
	}

	if elem, ok := c.items[name]; ok {
		c.removeElement(elem)
	}

	for c.size+size > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	entry := &memoryEntry{
		name:     name,
		waveform: w,
		size:     size,
		modTime:  info.ModTime(),
		fileSize: info.Size(),
	}
	c.items[name] = c.eviction.PushFront(entry)
	c.size += size
}

func (c *memoryCache) remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[name]; ok {
		c.removeElement(elem)
	}
}

func (c *memoryCache) snapshot() memoryStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// evictOldest removes the least recently used entry (must be called with lock held).
func (c *memoryCache) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
	}
}

// removeElement must be called with lock held.
func (c *memoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*memoryEntry)
	delete(c.items, entry.name)
	c.size -= entry.size
}
