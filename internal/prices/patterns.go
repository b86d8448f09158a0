package prices

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

//go:embed patterns.toml
var defaultPatterns []byte

// PatternEntry maps a regular expression onto a canonical name.
type PatternEntry struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
}

// PatternTable holds the ordered recognition lists used by DetailParser.
type PatternTable struct {
	Sets       []PatternEntry `toml:"sets"`
	Characters []PatternEntry `toml:"characters"`
}

// ParsePatterns decodes a TOML pattern table.
func ParsePatterns(data []byte) (PatternTable, error) {
	var table PatternTable
	if err := toml.Unmarshal(data, &table); err != nil {
		return PatternTable{}, fmt.Errorf("parse pattern table: %w", err)
	}
	return table, nil
}

// LoadPatterns reads a pattern table from disk.
func LoadPatterns(path string) (PatternTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PatternTable{}, fmt.Errorf("read pattern table: %w", err)
	}
	return ParsePatterns(data)
}

// DefaultPatterns returns the built-in table.
func DefaultPatterns() PatternTable {
	table, err := ParsePatterns(defaultPatterns)
	if err != nil {
		panic(err)
	}
	return table
}

type compiledPattern struct {
	name string
	re   *regexp.Regexp
}

func compilePatterns(entries []PatternEntry) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(entries))
	for _, e := range entries {
		re, err := regexp.Compile("(?i)" + e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q (%s): %w", e.Pattern, e.Name, err)
		}
		out = append(out, compiledPattern{name: e.Name, re: re})
	}
	return out, nil
}
