package geocode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Entry is one cached lookup outcome. Nil coordinates record a negative
// result: the query was attempted before and found nothing, so it must not
// be retried.
type Entry struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Cache is a file-backed map from normalized query text to coordinates.
// It is loaded once at startup, appended to during a run, and flushed as a
// complete replacement of the backing file.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
}

// NewCache loads the cache at path. A missing file yields an empty cache;
// an unreadable or unparseable one is logged and the cache starts empty,
// at the cost of repeat lookups.
func NewCache(path string) *Cache {
	c := &Cache{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("geocode cache unreadable, starting empty",
				zap.String("path", path),
				zap.Error(err),
			)
		}
		return c
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		zap.L().Warn("geocode cache corrupt, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		c.entries = make(map[string]Entry)
	}
	return c
}

// Key derives the cache key for a query: upper-cased, trimmed. Blank input
// has no key and bypasses the cache entirely.
func Key(query string) string {
	return strings.ToUpper(strings.TrimSpace(query))
}

// Lookup returns the entry for query. found=false means the query was
// never attempted; found with nil coordinates is a negative entry.
func (c *Cache) Lookup(query string) (Entry, bool) {
	key := Key(query)
	if key == "" {
		return Entry{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Record upserts the outcome for query, overwriting any prior entry for
// the same key. Blank queries are ignored.
func (c *Cache) Record(query string, lat, lon *float64) {
	key := Key(query)
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Lat: lat, Lon: lon}
}

// Len reports the number of cached queries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush serializes the cache and replaces the backing file via a temp file
// and rename, so a crash mid-write cannot corrupt the previous contents.
// On failure the in-memory entries are kept for the next attempt.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "cache: marshal")
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "cache: create dir %s", dir)
		}
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "cache: write temp file")
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return eris.Wrapf(err, "cache: replace %s", c.path)
	}
	return nil
}
