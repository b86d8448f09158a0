package prices

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Candidate is one product record returned by the catalog.
// Prices are in cents, keyed by the catalog's field name.
type Candidate struct {
	ID          string         `json:"id"`
	ProductName string         `json:"productName"`
	ConsoleName string         `json:"consoleName,omitempty"`
	Category    string         `json:"category,omitempty"`
	Platform    string         `json:"platform,omitempty"`
	Prices      map[string]int `json:"prices,omitempty"`
}

// Price returns the cents value of a price field, or 0 when absent.
func (c Candidate) Price(field string) int {
	if c.Prices == nil {
		return 0
	}
	return c.Prices[field]
}

// ScoredCandidate is a candidate annotated with its confidence score and,
// once reconciled, the canonical set it belongs to.
type ScoredCandidate struct {
	Candidate
	MatchScore      float64 `json:"matchScore"`
	MatchedSetValue string  `json:"matchedSetValue,omitempty"`
	MatchedSetLabel string  `json:"matchedSetLabel,omitempty"`
}

// candidateFrom converts a decoded catalog product object.
func candidateFrom(m map[string]any) Candidate {
	getString := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := m[k]; ok && v != nil {
				if s := stringValue(v); s != "" {
					return s
				}
			}
		}
		return ""
	}

	c := Candidate{
		ID:          getString("id"),
		ProductName: getString("product-name", "productName", "name"),
		ConsoleName: getString("console-name", "consoleName", "console"),
		Category:    getString("category", "genre"),
		Platform:    getString("platform"),
	}

	for k, v := range m {
		if !strings.HasSuffix(k, "-price") {
			continue
		}
		if cents, ok := centsValue(v); ok {
			if c.Prices == nil {
				c.Prices = make(map[string]int)
			}
			c.Prices[k] = cents
		}
	}
	return c
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(v)
	}
}

// centsValue reads a whole number of cents. Fractional values are not
// cents and are rejected rather than truncated.
func centsValue(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case string:
		s := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(t), "$"), ",", "")
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
	}
	return 0, false
}

// candidatesFrom accepts either a product list response or a single product.
func candidatesFrom(body map[string]any) ([]Candidate, bool) {
	if raw, ok := body["products"]; ok {
		list, _ := raw.([]any)
		out := make([]Candidate, 0, len(list))
		for _, item := range list {
			if pm, ok := item.(map[string]any); ok {
				out = append(out, candidateFrom(pm))
			}
		}
		return out, true
	}
	if _, ok := body["id"]; ok {
		return []Candidate{candidateFrom(body)}, true
	}
	return nil, false
}
