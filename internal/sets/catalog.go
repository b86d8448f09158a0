package sets

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var defaultCatalog []byte

// Option is one canonical set as the card form knows it.
type Option struct {
	Value string `json:"value" toml:"value"`
	Label string `json:"label" toml:"label"`
}

type yearBlock struct {
	Year int      `toml:"year"`
	Sets []Option `toml:"sets"`
}

// ParseStatic decodes a TOML set table into year -> ordered options.
func ParseStatic(data []byte) (map[int][]Option, error) {
	var doc struct {
		Years []yearBlock `toml:"years"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse set catalog: %w", err)
	}

	out := make(map[int][]Option, len(doc.Years))
	for _, y := range doc.Years {
		out[y.Year] = append(out[y.Year], y.Sets...)
	}
	return out, nil
}

// DefaultStatic returns the built-in set table.
func DefaultStatic() map[int][]Option {
	static, err := ParseStatic(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return static
}

// Catalog is the static set table plus sets users added themselves.
// The user overlay is stored as JSON keyed by year.
type Catalog struct {
	static      map[int][]Option
	overlay     map[int][]Option
	overlayPath string
	mu          sync.RWMutex
}

// NewCatalog builds a catalog and loads the overlay from overlayPath.
// An empty path keeps the overlay in memory only.
func NewCatalog(static map[int][]Option, overlayPath string) (*Catalog, error) {
	c := &Catalog{
		static:      static,
		overlay:     make(map[int][]Option),
		overlayPath: overlayPath,
	}
	if c.static == nil {
		c.static = make(map[int][]Option)
	}

	if overlayPath == "" {
		return c, nil
	}
	data, err := os.ReadFile(overlayPath)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read custom sets: %w", err)
	}
	if len(data) == 0 {
		return c, nil
	}

	var raw map[string][]Option
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse custom sets: %w", err)
	}
	for k, opts := range raw {
		year, err := strconv.Atoi(k)
		if err != nil {
			log.Printf("sets: skipping custom sets under non-numeric year %q", k)
			continue
		}
		c.overlay[year] = opts
	}
	return c, nil
}

// NewDefaultCatalog uses the built-in static table.
func NewDefaultCatalog(overlayPath string) (*Catalog, error) {
	return NewCatalog(DefaultStatic(), overlayPath)
}

// ForYear returns the static sets of year followed by custom ones.
func (c *Catalog) ForYear(year int) []Option {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.forYearLocked(year)
}

func (c *Catalog) forYearLocked(year int) []Option {
	static, custom := c.static[year], c.overlay[year]
	if len(static) == 0 && len(custom) == 0 {
		return nil
	}
	out := make([]Option, 0, len(static)+len(custom))
	out = append(out, static...)
	return append(out, custom...)
}

// Years lists every year with at least one set, ascending.
func (c *Catalog) Years() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[int]bool)
	for y, opts := range c.static {
		if len(opts) > 0 {
			seen[y] = true
		}
	}
	for y, opts := range c.overlay {
		if len(opts) > 0 {
			seen[y] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// All returns every set, ordered by year.
func (c *Catalog) All() []Option {
	years := c.Years()

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Option
	for _, y := range years {
		out = append(out, c.forYearLocked(y)...)
	}
	return out
}

// AddCustomSet appends opt to year unless a set with the same value
// (case-sensitive) already exists there, then persists the overlay.
// It reports whether the set was added.
func (c *Catalog) AddCustomSet(year int, opt Option) (bool, error) {
	opt.Value = strings.TrimSpace(opt.Value)
	opt.Label = strings.TrimSpace(opt.Label)
	if opt.Value == "" {
		return false, fmt.Errorf("custom set value is required")
	}
	if opt.Label == "" {
		opt.Label = opt.Value
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.forYearLocked(year) {
		if existing.Value == opt.Value {
			return false, nil
		}
	}

	prev := c.overlay[year]
	c.overlay[year] = append(append([]Option(nil), prev...), opt)
	if err := c.saveLocked(); err != nil {
		c.overlay[year] = prev
		if len(prev) == 0 {
			delete(c.overlay, year)
		}
		return false, err
	}
	return true, nil
}

// CustomSets returns a copy of the user overlay.
func (c *Catalog) CustomSets() map[int][]Option {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[int][]Option, len(c.overlay))
	for y, opts := range c.overlay {
		out[y] = append([]Option(nil), opts...)
	}
	return out
}

func (c *Catalog) saveLocked() error {
	if c.overlayPath == "" {
		return nil
	}
	if dir := filepath.Dir(c.overlayPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create custom sets dir: %w", err)
		}
	}

	raw := make(map[string][]Option, len(c.overlay))
	for y, opts := range c.overlay {
		raw[strconv.Itoa(y)] = opts
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal custom sets: %w", err)
	}
	if err := os.WriteFile(c.overlayPath, data, 0644); err != nil {
		return fmt.Errorf("write custom sets: %w", err)
	}
	return nil
}
