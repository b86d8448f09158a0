package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/guarzo/pcmatch/internal/prices"
)

// ResultHeaders is the column order WriteResults uses.
var ResultHeaders = []string{
	"ID", "Product", "Console", "Card", "Set", "Number", "Year",
	"Condition", "Score", "Price", "Price Type", "URL",
}

// SafeCell prefixes a quote to values a spreadsheet would evaluate
// as a formula.
func SafeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '|', '%', '\t', '\r', '\n':
		return "'" + value
	}
	return value
}

// WriteResults writes one CSV row per result, header first.
func WriteResults(w io.Writer, results []prices.CardResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeaders); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range results {
		if err := cw.Write(resultRow(r)); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func resultRow(r prices.CardResult) []string {
	d := r.Details
	set := r.MatchedSetLabel
	if set == "" {
		set = d.Set
	}

	year := ""
	if d.Year > 0 {
		year = fmt.Sprint(d.Year)
	}
	score := ""
	if r.MatchScore > 0 {
		score = fmt.Sprintf("%.1f", r.MatchScore)
	}
	price, priceType := "", ""
	if r.BestPrice != nil {
		price = r.BestPrice.Price.StringFixed(2)
		priceType = r.BestPrice.PriceType
	}

	row := []string{
		r.ID, r.ProductName, r.ConsoleName, d.CardName, set, d.CardNumber, year,
		d.Condition, score, price, priceType, r.PriceChartingURL,
	}
	for i, cell := range row {
		row[i] = SafeCell(strings.TrimSpace(cell))
	}
	return row
}
