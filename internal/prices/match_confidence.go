package prices

import (
	"sort"
	"strconv"
	"strings"

	"github.com/guarzo/pcmatch/internal/model"
)

const (
	// NoiseFloor is the score a candidate must exceed to be kept.
	NoiseFloor = 20.0

	// MaxResults caps a ranked result list.
	MaxResults = 10
)

// Weights for each compared field. A field only counts toward the total
// when both sides of the comparison are present.
type Weights struct {
	Name           float64
	Set            float64
	Year           float64
	GradingCompany float64
	Grade          float64
}

var DefaultWeights = Weights{
	Name:           40,
	Set:            20,
	Year:           15,
	GradingCompany: 15,
	Grade:          10,
}

// Scorer rates how well a candidate matches a card query on a 0-100 scale.
type Scorer struct {
	weights Weights
}

func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights}
}

// Score returns 100 * earned weight / applicable weight, or 0 when no field
// could be compared.
func (s *Scorer) Score(c Candidate, q model.CardQuery) float64 {
	product := strings.TrimSpace(c.ProductName)
	if product == "" {
		return 0
	}
	lowerProduct := strings.ToLower(product)

	var earned, possible float64

	if name := strings.TrimSpace(q.Name); name != "" {
		possible += s.weights.Name
		earned += s.weights.Name * Similarity(name, product)
	}

	if set := strings.TrimSpace(q.Set); set != "" {
		possible += s.weights.Set
		earned += s.weights.Set * Similarity(set, product)
	}

	if q.Year > 0 {
		possible += s.weights.Year
		if strings.Contains(product, strconv.Itoa(q.Year)) {
			earned += s.weights.Year
		}
	}

	if company := strings.TrimSpace(q.GradingCompany); company != "" {
		possible += s.weights.GradingCompany
		if strings.Contains(lowerProduct, strings.ToLower(company)) {
			earned += s.weights.GradingCompany
		}
	}

	if grade := strings.TrimSpace(q.Grade); grade != "" {
		possible += s.weights.Grade
		if strings.Contains(product, grade) {
			earned += s.weights.Grade
		}
	}

	if possible == 0 {
		return 0
	}
	return 100 * earned / possible
}

// Similarity compares two strings case-insensitively: 1 when equal, 0.8 when
// one contains the other, otherwise the share of overlapping words.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)

	// Each word of a is counted at most once, so the ratio stays within [0, 1].
	matches := 0
	for _, wa := range wordsA {
		for _, wb := range wordsB {
			if wa == wb || strings.Contains(wa, wb) || strings.Contains(wb, wa) {
				matches++
				break
			}
		}
	}

	longest := len(wordsA)
	if len(wordsB) > longest {
		longest = len(wordsB)
	}
	return float64(matches) / float64(longest)
}

// Rank scores every candidate, drops those at or below the noise floor and
// returns the best MaxResults, highest score first.
func (s *Scorer) Rank(candidates []Candidate, q model.CardQuery) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		score := s.Score(c, q)
		if score <= NoiseFloor {
			continue
		}
		scored = append(scored, ScoredCandidate{Candidate: c, MatchScore: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	if len(scored) > MaxResults {
		scored = scored[:MaxResults]
	}
	return scored
}
