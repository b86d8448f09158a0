package cache

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/guarzo/pcmatch/internal/metrics"
)

// DefaultTTL is how long a catalog response stays usable.
const DefaultTTL = 24 * time.Hour

// Store is the contract the price service depends on.
type Store interface {
	Get(key string, target interface{}) (bool, error)
	Set(key string, value interface{}) error
	Clear() error
	Stats() Stats
}

type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Stats is a point-in-time view of the cache for debugging.
type Stats struct {
	Path       string   `json:"path"`
	Entries    int      `json:"entries"`
	Valid      int      `json:"valid"`
	Expired    int      `json:"expired"`
	MaxEntries int      `json:"maxEntries"`
	Hits       int64    `json:"hits"`
	Misses     int64    `json:"misses"`
	TTL        string   `json:"ttl"`
	Keys       []string `json:"keys"`
}

type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMaxEntries bounds the number of entries; the least recently used
// entry is dropped when the bound is exceeded. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// Cache is a key/value store with a fixed TTL whose contents are written
// to a JSON file on every mutation, so it survives restarts.
type Cache struct {
	path       string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]Entry
	recent     *lru.Cache[string, struct{}]
	hits       int64
	misses     int64
	mu         sync.Mutex
	writeMu    sync.Mutex
}

func New(path string, opts ...Option) (*Cache, error) {
	c := &Cache{
		path:    path,
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Load existing cache if file exists
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cache: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &c.entries); err != nil {
				log.Printf("cache: ignoring corrupt cache file %s: %v", path, err)
				c.entries = make(map[string]Entry)
			}
		}
	}

	if c.maxEntries > 0 {
		recent, err := lru.NewWithEvict[string, struct{}](c.maxEntries, func(key string, _ struct{}) {
			delete(c.entries, key)
		})
		if err != nil {
			return nil, fmt.Errorf("create lru index: %w", err)
		}
		c.recent = recent

		// Oldest first so the newest entries survive if the file is over the bound.
		keys := make([]string, 0, len(c.entries))
		for k := range c.entries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return c.entries[keys[i]].Timestamp.Before(c.entries[keys[j]].Timestamp)
		})
		for _, k := range keys {
			c.recent.Add(k, struct{}{})
		}
	}

	return c, nil
}

// Get decodes the entry stored under key into target. An entry older than
// the TTL is deleted and reported as absent.
func (c *Cache) Get(key string, target interface{}) (bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false, nil
	}

	if c.now().Sub(entry.Timestamp) > c.ttl {
		delete(c.entries, key)
		if c.recent != nil {
			c.recent.Remove(key)
		}
		c.misses++
		c.mu.Unlock()
		metrics.CacheLookups.WithLabelValues("expired").Inc()
		return false, nil
	}

	if c.recent != nil {
		c.recent.Get(key)
	}
	c.hits++
	c.mu.Unlock()

	if err := json.Unmarshal(entry.Data, target); err != nil {
		return false, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true, nil
}

// Set stores value under key and rewrites the cache file. A failed write is
// logged and otherwise ignored; only an unencodable value is an error.
func (c *Cache) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      data,
		Timestamp: c.now(),
	}
	if c.recent != nil {
		c.recent.Add(key, struct{}{})
	}
	c.mu.Unlock()

	c.persist()
	return nil
}

// Clear removes all cache entries
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	if c.recent != nil {
		c.recent.Purge()
	}
	c.hits, c.misses = 0, 0
	c.mu.Unlock()
	return c.save()
}

// Sweep drops every expired entry and returns how many were removed.
func (c *Cache) Sweep() (int, error) {
	c.mu.Lock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.Timestamp) > c.ttl {
			delete(c.entries, k)
			if c.recent != nil {
				c.recent.Remove(k)
			}
			removed++
		}
	}
	c.mu.Unlock()

	if removed == 0 {
		return 0, nil
	}
	return removed, c.save()
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Stats{
		Path:       c.path,
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
		TTL:        c.ttl.String(),
		Keys:       make([]string, 0, len(c.entries)),
	}
	for k, e := range c.entries {
		if now.Sub(e.Timestamp) > c.ttl {
			s.Expired++
		} else {
			s.Valid++
		}
		s.Keys = append(s.Keys, k)
	}
	sort.Strings(s.Keys)
	return s
}

func (c *Cache) persist() {
	if err := c.save(); err != nil {
		log.Printf("cache: failed to persist %s: %v", c.path, err)
	}
}

func (c *Cache) save() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// Create parent directory if needed
	if dir := filepath.Dir(c.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	c.mu.Lock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	return os.WriteFile(c.path, data, 0644)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeKey lowercases s and turns every other character into '_'.
func NormalizeKey(s string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToLower(s), "_")
}

func SearchKey(query string) string {
	return "search_" + NormalizeKey(query)
}

func ProductKey(id string) string {
	return "product_" + NormalizeKey(id)
}
