package prices

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceField is a catalog price key and the type it is reported as.
type PriceField struct {
	Key  string
	Type string
}

// BestPriceFields are checked in order by ExtractBestPrice.
var BestPriceFields = []PriceField{
	{Key: "price-charting-price", Type: "pricecharting"},
	{Key: "loose-price", Type: "loose"},
	{Key: "cib-price", Type: "complete"},
	{Key: "new-price", Type: "new"},
}

// BestPrice is a price in dollars.
type BestPrice struct {
	Price     decimal.Decimal `json:"price"`
	PriceType string          `json:"priceType"`
	Currency  string          `json:"currency"`
}

// ExtractBestPrice returns the first positive price among BestPriceFields,
// converted from cents, or nil when the candidate has none.
func ExtractBestPrice(c Candidate) *BestPrice {
	for _, f := range BestPriceFields {
		if cents := c.Price(f.Key); cents > 0 {
			return &BestPrice{
				Price:     decimal.New(int64(cents), -2),
				PriceType: f.Type,
				Currency:  "USD",
			}
		}
	}
	return nil
}

// CardDetails are the attributes recoverable from a free-text product name.
type CardDetails struct {
	CardName       string `json:"cardName"`
	Set            string `json:"set,omitempty"`
	Year           int    `json:"year,omitempty"`
	Grade          string `json:"grade,omitempty"`
	GradingCompany string `json:"gradingCompany,omitempty"`
	Condition      string `json:"condition,omitempty"`
	Holofoil       bool   `json:"holofoil,omitempty"`
	CardNumber     string `json:"cardNumber,omitempty"`
	Player         string `json:"player,omitempty"`
}

var (
	yearToken    = regexp.MustCompile(`\b(199[6-9]|20\d{2})\b`)
	gradeToken   = regexp.MustCompile(`(?i)\b(PSA|BGS|CGC|SGC|Beckett|ACE|TAG)\s*(10|[1-9](?:\.5)?)\b`)
	holoToken    = regexp.MustCompile(`(?i)\b(?:reverse\s+)?holo(?:foil|graphic)?\b`)
	numberToken  = regexp.MustCompile(`(?:#\s*([A-Za-z]{0,4}\d+[A-Za-z]?(?:/[A-Za-z]{0,4}\d+)?)|\b(\d{1,3}/\d{1,3}))\s*$`)
	cardTypes    = regexp.MustCompile(`(?i)\b(?:vmax|vstar|ex|gx|v)\b`)
	nonWordChars = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// DetailParser pulls structured card attributes out of product names.
type DetailParser struct {
	sets       []compiledPattern
	characters []compiledPattern
}

func NewDetailParser(table PatternTable) (*DetailParser, error) {
	sets, err := compilePatterns(table.Sets)
	if err != nil {
		return nil, err
	}
	characters, err := compilePatterns(table.Characters)
	if err != nil {
		return nil, err
	}
	return &DetailParser{sets: sets, characters: characters}, nil
}

// NewDefaultDetailParser uses the built-in pattern table.
func NewDefaultDetailParser() *DetailParser {
	p, err := NewDetailParser(DefaultPatterns())
	if err != nil {
		panic(err)
	}
	return p
}

// Parse strips recognised tokens from the product name one at a time; what
// is left over is the card name.
func (p *DetailParser) Parse(productName string) CardDetails {
	var d CardDetails

	s := leadingPokemon.ReplaceAllString(collapse(productName), "")

	if m := yearToken.FindStringSubmatchIndex(s); m != nil {
		d.Year, _ = strconv.Atoi(s[m[2]:m[3]])
		s = s[:m[0]] + " " + s[m[1]:]
	}

	if m := gradeToken.FindStringSubmatchIndex(s); m != nil {
		company := strings.ToUpper(s[m[2]:m[3]])
		if company == "BECKETT" {
			company = "BGS"
		}
		d.GradingCompany = company
		d.Grade = s[m[4]:m[5]]
		d.Condition = company + " " + d.Grade
		s = s[:m[0]] + " " + s[m[1]:]
	}

	if holoToken.MatchString(s) {
		d.Holofoil = true
		s = holoToken.ReplaceAllString(s, " ")
	}

	for _, sp := range p.sets {
		if loc := sp.re.FindStringIndex(s); loc != nil {
			d.Set = strings.ToLower(collapse(s[loc[0]:loc[1]]))
			s = s[:loc[0]] + " " + s[loc[1]:]
			break
		}
	}

	s = collapse(s)
	if m := numberToken.FindStringSubmatchIndex(s); m != nil {
		switch {
		case m[2] >= 0:
			d.CardNumber = s[m[2]:m[3]]
		case m[4] >= 0:
			d.CardNumber = s[m[4]:m[5]]
		}
		s = s[:m[0]]
	}

	s = cardTypes.ReplaceAllString(s, " ")
	s = nonWordChars.ReplaceAllString(s, "")
	d.CardName = collapse(s)

	for _, cp := range p.characters {
		if cp.re.MatchString(d.CardName) {
			d.Player = cp.name
			break
		}
	}

	return d
}
