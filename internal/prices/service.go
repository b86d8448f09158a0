package prices

import (
	"context"
	"errors"
	"log"
	"net/url"
	"regexp"
	"strings"

	"github.com/guarzo/pcmatch/internal/cache"
	"github.com/guarzo/pcmatch/internal/metrics"
	"github.com/guarzo/pcmatch/internal/model"
	"github.com/guarzo/pcmatch/internal/sets"
)

// DefaultNameLimit caps SearchCardsByName when no limit is given.
const DefaultNameLimit = 20

// PriceSource is reported on every converted card.
const PriceSource = "pricecharting"

// Catalog is the product lookup the service depends on. *Client implements it.
type Catalog interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]Candidate, error)
	Product(ctx context.Context, id string) (*Candidate, error)
}

// CardResult is a candidate annotated for display and conversion.
type CardResult struct {
	Candidate
	Details          CardDetails `json:"details"`
	BestPrice        *BestPrice  `json:"bestPrice,omitempty"`
	PriceChartingURL string      `json:"priceChartingUrl,omitempty"`
	MatchScore       float64     `json:"matchScore,omitempty"`
	MatchedSetValue  string      `json:"matchedSetValue,omitempty"`
	MatchedSetLabel  string      `json:"matchedSetLabel,omitempty"`
}

// Service is the price lookup surface used by the API and CLI. The cache
// and catalog are injected so several services can share or isolate them.
type Service struct {
	catalog Catalog
	cache   cache.Store
	scorer  *Scorer
	builder *QueryBuilder
	parser  *DetailParser
	sets    *sets.Catalog
	baseURL string
}

type ServiceOption func(*Service)

func WithDetailParser(p *DetailParser) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

func WithQueryBuilder(qb *QueryBuilder) ServiceOption {
	return func(s *Service) {
		if qb != nil {
			s.builder = qb
		}
	}
}

func WithScorer(sc *Scorer) ServiceOption {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithSetCatalog enables set reconciliation. Without it results keep the
// catalog's own set names.
func WithSetCatalog(c *sets.Catalog) ServiceOption {
	return func(s *Service) {
		s.sets = c
	}
}

// WithLinkBase sets the site root used for PriceCharting links.
func WithLinkBase(base string) ServiceOption {
	return func(s *Service) {
		if base != "" {
			s.baseURL = strings.TrimRight(base, "/")
		}
	}
}

func NewService(catalog Catalog, store cache.Store, opts ...ServiceOption) *Service {
	s := &Service{
		catalog: catalog,
		cache:   store,
		scorer:  NewScorer(),
		builder: NewQueryBuilder(),
		baseURL: DefaultBaseURL,
	}
	if c, ok := catalog.(interface{ BaseURL() string }); ok && c.BaseURL() != "" {
		s.baseURL = c.BaseURL()
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = NewDefaultDetailParser()
	}
	return s
}

// SetCatalog returns the reconciliation catalog, or nil.
func (s *Service) SetCatalog() *sets.Catalog {
	return s.sets
}

// SearchProducts returns catalog candidates for query, served from the
// cache while fresh. The full catalog answer is fetched and cached under
// the query alone; a positive limit only truncates what is returned.
func (s *Service) SearchProducts(ctx context.Context, query string, limit int) ([]Candidate, error) {
	key := cache.SearchKey(query)

	var candidates []Candidate
	if !s.lookup(key, &candidates) {
		fetched, err := s.catalog.SearchProducts(ctx, query, 0)
		if err != nil {
			return nil, err
		}
		s.store(key, fetched)
		candidates = fetched
	}

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// GetProduct returns a single catalog product, cached like searches.
func (s *Service) GetProduct(ctx context.Context, id string) (*Candidate, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &APIError{Endpoint: productEndpoint, Message: "product id is required"}
	}
	key := cache.ProductKey(id)

	var cached Candidate
	if s.lookup(key, &cached) {
		return &cached, nil
	}

	product, err := s.catalog.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(key, product)
	return product, nil
}

func (s *Service) lookup(key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(key, target)
	if err != nil {
		log.Printf("pricecharting: cache read %s: %v", key, err)
		return false
	}
	return found
}

func (s *Service) store(key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(key, value); err != nil {
		log.Printf("pricecharting: cache write %s: %v", key, err)
	}
}

// SearchCardPrice builds a query from q, searches the catalog and returns
// the ranked candidates with their reconciled sets. A search that leaves
// nothing above the noise floor returns a *NoMatchError.
func (s *Service) SearchCardPrice(ctx context.Context, q model.CardQuery) ([]ScoredCandidate, error) {
	query := s.builder.Build(q)

	candidates, err := s.SearchProducts(ctx, query, 0)
	if err != nil {
		metrics.MatchSearchesTotal.WithLabelValues("card", "error").Inc()
		return nil, err
	}

	ranked := s.scorer.Rank(candidates, q)
	if len(ranked) == 0 {
		metrics.MatchSearchesTotal.WithLabelValues("card", "no_match").Inc()
		return nil, &NoMatchError{Query: query}
	}

	for i := range ranked {
		details := s.parser.Parse(ranked[i].ProductName)
		if opt, ok := s.reconcile(ranked[i].Candidate, details, q); ok {
			ranked[i].MatchedSetValue = opt.Value
			ranked[i].MatchedSetLabel = opt.Label
		}
	}

	metrics.MatchSearchesTotal.WithLabelValues("card", "matched").Inc()
	metrics.MatchTopScore.Observe(ranked[0].MatchScore)
	return ranked, nil
}

// reconcile maps the candidate's set onto the canonical catalog. The
// catalog's console name is preferred over the set parsed from the title.
func (s *Service) reconcile(c Candidate, d CardDetails, q model.CardQuery) (sets.Option, bool) {
	if s.sets == nil {
		return sets.Option{}, false
	}
	year := d.Year
	if year == 0 {
		year = q.Year
	}
	for _, raw := range []string{c.ConsoleName, d.Set, q.Set} {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if opt, ok := s.sets.Reconcile(raw, year); ok {
			return opt, true
		}
	}
	return sets.Option{}, false
}

// SearchCardsByName looks a card up by name alone. Each strategy runs in
// turn until limit results are collected; a failing strategy is skipped as
// long as another one succeeds.
func (s *Service) SearchCardsByName(ctx context.Context, name string, limit int) ([]CardResult, error) {
	name = collapse(leadingPokemon.ReplaceAllString(collapse(name), ""))
	if name == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultNameLimit
	}

	strategies := []string{CategoryToken + " " + name, name}
	if cleaned := CleanCardName(name); cleaned != "" && cleaned != name {
		strategies = append(strategies, cleaned)
	}

	var (
		results   []CardResult
		seen      = make(map[string]bool)
		succeeded bool
		lastErr   error
	)
	for _, query := range strategies {
		candidates, err := s.SearchProducts(ctx, query, 0)
		if err != nil {
			var ce *ConfigurationError
			if errors.As(err, &ce) || ctx.Err() != nil {
				metrics.MatchSearchesTotal.WithLabelValues("name", "error").Inc()
				return nil, err
			}
			log.Printf("pricecharting: name search %q failed: %v", query, err)
			lastErr = err
			continue
		}
		succeeded = true

		for _, c := range candidates {
			if strings.TrimSpace(c.ProductName) == "" {
				continue
			}
			key := dedupeKey(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			results = append(results, s.Annotate(c))
			if len(results) >= limit {
				break
			}
		}
		if len(results) >= limit {
			break
		}
	}

	if !succeeded {
		metrics.MatchSearchesTotal.WithLabelValues("name", "error").Inc()
		return nil, lastErr
	}
	if len(results) == 0 {
		metrics.MatchSearchesTotal.WithLabelValues("name", "no_match").Inc()
	} else {
		metrics.MatchSearchesTotal.WithLabelValues("name", "matched").Inc()
	}
	return results, nil
}

// dedupeKey identifies a candidate across strategies: by id, or by its
// normalized product name when the catalog sent no id.
func dedupeKey(c Candidate) string {
	if c.ID != "" {
		return "id:" + c.ID
	}
	return "name:" + strings.ToLower(collapse(c.ProductName))
}

// Annotate parses the product name and attaches the best price and link.
func (s *Service) Annotate(c Candidate) CardResult {
	return CardResult{
		Candidate:        c,
		Details:          s.parser.Parse(c.ProductName),
		BestPrice:        ExtractBestPrice(c),
		PriceChartingURL: s.PriceChartingURL(c),
	}
}

// AnnotateScored is Annotate for a ranked candidate, keeping its score and
// reconciled set.
func (s *Service) AnnotateScored(sc ScoredCandidate) CardResult {
	r := s.Annotate(sc.Candidate)
	r.MatchScore = sc.MatchScore
	r.MatchedSetValue = sc.MatchedSetValue
	r.MatchedSetLabel = sc.MatchedSetLabel
	return r
}

var slugChars = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// PriceChartingURL builds a best-effort link to the product page. With a
// console and product name it is the canonical /game page, with only a name
// a price search, and with only an id the offers page.
func (s *Service) PriceChartingURL(c Candidate) string {
	console, product := slugify(c.ConsoleName), slugify(c.ProductName)
	switch {
	case console != "" && product != "":
		return s.baseURL + "/game/" + console + "/" + product
	case strings.TrimSpace(c.ProductName) != "":
		q := url.Values{}
		q.Set("q", collapse(c.ProductName))
		q.Set("type", "prices")
		return s.baseURL + "/search-products?" + q.Encode()
	case c.ID != "":
		return s.baseURL + "/offers?product=" + url.QueryEscape(c.ID)
	default:
		return ""
	}
}

// ConvertToCardData fills the card form from a result. Fields missing from
// the parsed product name fall back to the original query.
func (s *Service) ConvertToCardData(r CardResult, q model.CardQuery) model.CardData {
	d := r.Details
	if d.CardName == "" && r.ProductName != "" {
		d = s.parser.Parse(r.ProductName)
	}

	card := model.CardData{
		Name:             firstNonEmpty(d.CardName, q.Name, r.ProductName),
		Year:             d.Year,
		CardNumber:       d.CardNumber,
		GradingCompany:   d.GradingCompany,
		Grade:            d.Grade,
		Condition:        d.Condition,
		Holofoil:         d.Holofoil,
		Player:           d.Player,
		PriceSource:      PriceSource,
		PriceChartingID:  r.ID,
		PriceChartingURL: firstNonEmpty(r.PriceChartingURL, s.PriceChartingURL(r.Candidate)),
		MatchScore:       r.MatchScore,
	}
	if card.Year == 0 {
		card.Year = q.Year
	}
	// Company and grade come as a pair so a parsed grade is never mixed
	// with the query's company.
	if card.GradingCompany == "" && card.Grade == "" && q.HasGrade() {
		card.GradingCompany, card.Grade = q.GradingCompany, q.Grade
	}
	if card.Condition == "" && card.GradingCompany != "" && card.Grade != "" {
		card.Condition = card.GradingCompany + " " + card.Grade
	}

	best := r.BestPrice
	if best == nil {
		best = ExtractBestPrice(r.Candidate)
	}
	if best != nil {
		card.CurrentValue = best.Price
		card.PriceType = best.PriceType
	}

	switch {
	case r.MatchedSetValue != "":
		card.Set, card.SetLabel = r.MatchedSetValue, firstNonEmpty(r.MatchedSetLabel, r.MatchedSetValue)
	default:
		if opt, ok := s.reconcile(r.Candidate, d, q); ok {
			card.Set, card.SetLabel = opt.Value, opt.Label
		} else {
			card.Set = firstNonEmpty(q.Set, r.ConsoleName, d.Set)
		}
	}
	return card
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ClearCache drops every cached catalog response.
func (s *Service) ClearCache() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear()
}

func (s *Service) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.Stats()
}
