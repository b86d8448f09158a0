package prices

import "testing"

func TestCandidateFrom_Prices(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		present bool
	}{
		{"json number", float64(1050), 1050, true},
		{"int", 1050, 1050, true},
		{"digit string", "1050", 1050, true},
		{"dollar sign and commas", " $1,050 ", 1050, true},
		{"fractional string rejected", "10.50", 0, false},
		{"fractional number rejected", 10.5, 0, false},
		{"garbage", "n/a", 0, false},
		{"null", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := candidateFrom(map[string]any{"id": "1", "product-name": "Pokemon Mew #8", "loose-price": tt.value})
			got, ok := c.Prices["loose-price"]
			if ok != tt.present || got != tt.want {
				t.Errorf("Expected %d (present=%v), got %d (present=%v)", tt.want, tt.present, got, ok)
			}
		})
	}
}
