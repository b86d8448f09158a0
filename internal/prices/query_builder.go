package prices

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/guarzo/pcmatch/internal/model"
)

const (
	// CategoryToken leads every catalog search.
	CategoryToken = "Pokemon"

	// FirstCardYear is the first year Pokemon cards were printed.
	FirstCardYear = 1996
)

var (
	parenthetical  = regexp.MustCompile(`\s*\([^)]*\)`)
	trailingSuffix = regexp.MustCompile(`\s+-\s+.*$`)
	leadingPokemon = regexp.MustCompile(`(?i)^pok[eé]mon\s+`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// QueryBuilder turns a card description into a catalog search string.
type QueryBuilder struct {
	now func() time.Time
}

// NewQueryBuilder creates a query builder using the wall clock to bound years.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{now: time.Now}
}

// Build assembles "Pokemon <name> <set> <year>", skipping empty parts.
func (qb *QueryBuilder) Build(q model.CardQuery) string {
	parts := []string{CategoryToken}

	if name := CleanCardName(q.Name); name != "" {
		parts = append(parts, name)
	}
	if set := CleanSetName(q.Set); set != "" {
		parts = append(parts, set)
	}
	if qb.validYear(q.Year) {
		parts = append(parts, strconv.Itoa(q.Year))
	}

	return strings.Join(parts, " ")
}

func (qb *QueryBuilder) validYear(year int) bool {
	return year >= FirstCardYear && year <= qb.now().Year()
}

// BuildQuery is Build with the wall clock.
func BuildQuery(q model.CardQuery) string {
	return NewQueryBuilder().Build(q)
}

// CleanCardName drops parenthetical notes and a trailing " - ..." suffix.
func CleanCardName(name string) string {
	name = parenthetical.ReplaceAllString(name, "")
	name = trailingSuffix.ReplaceAllString(name, "")
	return collapse(name)
}

// CleanSetName drops a redundant leading "Pokemon" and parenthetical notes.
func CleanSetName(set string) string {
	set = collapse(set)
	set = leadingPokemon.ReplaceAllString(set, "")
	set = parenthetical.ReplaceAllString(set, "")
	return collapse(set)
}

func collapse(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}
