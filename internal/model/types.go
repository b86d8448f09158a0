package model

import "github.com/shopspring/decimal"

// CardQuery is the caller's description of a card to price.
// Only Name is needed for a useful lookup; the rest narrows the match.
type CardQuery struct {
	Name           string `json:"name"`
	Set            string `json:"set,omitempty"`
	Year           int    `json:"year,omitempty"`
	GradingCompany string `json:"gradingCompany,omitempty"`
	Grade          string `json:"grade,omitempty"`
}

// HasGrade reports whether the query describes a slabbed card.
func (q CardQuery) HasGrade() bool {
	return q.GradingCompany != "" && q.Grade != ""
}

// CardData is the shape the card edit form is filled from.
type CardData struct {
	Name             string          `json:"name"`
	Set              string          `json:"set,omitempty"`
	SetLabel         string          `json:"setLabel,omitempty"`
	Year             int             `json:"year,omitempty"`
	CardNumber       string          `json:"cardNumber,omitempty"`
	GradingCompany   string          `json:"gradingCompany,omitempty"`
	Grade            string          `json:"grade,omitempty"`
	Condition        string          `json:"condition,omitempty"`
	Holofoil         bool            `json:"holofoil,omitempty"`
	Player           string          `json:"player,omitempty"`
	CurrentValue     decimal.Decimal `json:"currentValue"`
	PriceType        string          `json:"priceType,omitempty"`
	PriceSource      string          `json:"priceSource"`
	PriceChartingID  string          `json:"priceChartingId,omitempty"`
	PriceChartingURL string          `json:"priceChartingUrl,omitempty"`
	MatchScore       float64         `json:"matchScore,omitempty"`
}
