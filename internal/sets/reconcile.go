package sets

import (
	"regexp"
	"sort"
	"strings"
)

// BaseSetLabel is the set PriceCharting's generic 1999 listings belong to.
const BaseSetLabel = "Base Set (EN)"

var (
	// The TCG prefixes only go when more text follows, so a bare
	// "Pokemon Trading Card Game" keeps its "game".
	tcgPrefix      = regexp.MustCompile(`^pok[eé]mon\s+(?:trading\s+)?card\s+game\s+`)
	tcgShortPrefix = regexp.MustCompile(`^pok[eé]mon\s+(?:tcg|ccg)\s+`)
	pokemonPrefix  = regexp.MustCompile(`^pok[eé]mon\s+`)
	languagePrefix = regexp.MustCompile(`^(?:english|japanese|eng|jpn|en|jp)\b[\s:-]*`)
	spaces         = regexp.MustCompile(`\s+`)
)

// CleanSetName normalizes a catalog set name for comparison.
func CleanSetName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(spaces.ReplaceAllString(raw, " ")))
	s = tcgPrefix.ReplaceAllString(s, "")
	s = tcgShortPrefix.ReplaceAllString(s, "")
	s = pokemonPrefix.ReplaceAllString(s, "")
	s = languagePrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Reconcile maps a free-text set name onto a canonical set. The sets of
// year are searched when the catalog has any, otherwise every set is.
func (c *Catalog) Reconcile(rawSetName string, year int) (Option, bool) {
	pool := c.ForYear(year)
	if len(pool) == 0 {
		pool = c.All()
	}
	return reconcile(pool, rawSetName, year)
}

func reconcile(pool []Option, rawSetName string, year int) (Option, bool) {
	cleaned := CleanSetName(rawSetName)
	if cleaned == "" || len(pool) == 0 {
		return Option{}, false
	}

	// 1999 catalog listings named after the game itself are Base Set cards.
	if year == 1999 && strings.Contains(cleaned, "game") {
		for _, opt := range pool {
			if opt.Label == BaseSetLabel {
				return opt, true
			}
		}
	}

	for _, opt := range pool {
		if strings.EqualFold(opt.Label, cleaned) || strings.EqualFold(opt.Value, cleaned) {
			return opt, true
		}
	}

	type partial struct {
		opt           Option
		baseSet       bool
		labelContains bool
		lengthDiff    int
	}

	var partials []partial
	for _, opt := range pool {
		label := strings.ToLower(opt.Label)
		value := strings.ToLower(opt.Value)
		if !overlaps(label, cleaned) && !overlaps(value, cleaned) {
			continue
		}
		diff := len(label) - len(cleaned)
		if diff < 0 {
			diff = -diff
		}
		partials = append(partials, partial{
			opt:           opt,
			baseSet:       year == 1999 && strings.HasPrefix(label, "base set"),
			labelContains: strings.Contains(label, cleaned),
			lengthDiff:    diff,
		})
	}
	if len(partials) == 0 {
		return Option{}, false
	}

	sort.SliceStable(partials, func(i, j int) bool {
		a, b := partials[i], partials[j]
		if a.baseSet != b.baseSet {
			return a.baseSet
		}
		if a.labelContains != b.labelContains {
			return a.labelContains
		}
		return a.lengthDiff < b.lengthDiff
	})
	return partials[0].opt, true
}

func overlaps(candidate, cleaned string) bool {
	if candidate == "" {
		return false
	}
	return strings.Contains(candidate, cleaned) || strings.Contains(cleaned, candidate)
}
