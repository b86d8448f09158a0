package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/guarzo/pcmatch/internal/cache"
	"github.com/guarzo/pcmatch/internal/model"
	"github.com/guarzo/pcmatch/internal/prices"
	"github.com/guarzo/pcmatch/internal/sets"
)

type stubCatalog struct {
	results map[string][]prices.Candidate
	err     error
}

func (s *stubCatalog) SearchProducts(ctx context.Context, query string, limit int) ([]prices.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func (s *stubCatalog) Product(ctx context.Context, id string) (*prices.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, list := range s.results {
		for _, c := range list {
			if c.ID == id {
				return &c, nil
			}
		}
	}
	return nil, &prices.APIError{Endpoint: "/api/product", Message: "not found"}
}

var charizardProducts = []prices.Candidate{
	{
		ID: "1", ProductName: "Pokemon Charizard Base Set 1999 #4", ConsoleName: "Pokemon Base Set",
		Prices: map[string]int{"loose-price": 35000},
	},
	{ID: "2", ProductName: "Pokemon Squirtle Base Set #63", ConsoleName: "Pokemon Base Set"},
}

func setupTestRouter(t *testing.T, catalog prices.Catalog) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := cache.New(filepath.Join(dir, "cache.json"))
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	setsPath := filepath.Join(dir, "custom_sets.json")
	setCatalog, err := sets.NewCatalog(map[int][]sets.Option{
		1999: {{Value: "Base Set", Label: "Base Set (EN)"}, {Value: "Jungle", Label: "Jungle (EN)"}},
	}, setsPath)
	if err != nil {
		t.Fatalf("sets.NewCatalog failed: %v", err)
	}

	svc := prices.NewService(catalog, store, prices.WithSetCatalog(setCatalog))
	return SetupRouter(svc, RouterConfig{CORSOrigins: []string{"https://app.example"}}), setsPath
}

func defaultCatalog() *stubCatalog {
	return &stubCatalog{results: map[string][]prices.Candidate{
		"Pokemon Charizard Base Set 1999": charizardProducts,
		"Pokemon Charizard":               charizardProducts,
	}}
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	w := doRequest(router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("Expected caller request id to be echoed, got %q", got)
	}
}

func TestSearchCardPrice(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	w := doRequest(router, http.MethodGet, "/api/prices/search?name=Charizard&set=Base+Set&year=1999", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Query   model.CardQuery     `json:"query"`
		Results []prices.CardResult `json:"results"`
	}
	decode(t, w, &resp)

	if resp.Query.Year != 1999 {
		t.Errorf("Expected echoed query, got %+v", resp.Query)
	}
	if len(resp.Results) == 0 || resp.Results[0].ID != "1" {
		t.Fatalf("Expected Charizard first, got %+v", resp.Results)
	}
	top := resp.Results[0]
	if top.MatchedSetValue != "Base Set" || top.BestPrice == nil || top.BestPrice.PriceType != "loose" {
		t.Errorf("Expected reconciled, priced result, got %+v", top)
	}
}

func TestSearchCardPrice_BadRequests(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	for _, path := range []string{
		"/api/prices/search",
		"/api/prices/search?name=Charizard&year=old",
		"/api/prices/cards",
		"/api/prices/cards?name=Mew&limit=-1",
	} {
		if w := doRequest(router, http.MethodGet, path, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"configuration", &prices.ConfigurationError{Reason: "no token"}, http.StatusServiceUnavailable},
		{"timeout", &prices.TimeoutError{Endpoint: "/api/products"}, http.StatusGatewayTimeout},
		{"network", &prices.NetworkError{Endpoint: "/api/products", StatusCode: 500}, http.StatusBadGateway},
		{"api", &prices.APIError{Endpoint: "/api/products", Message: "bad"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupTestRouter(t, &stubCatalog{err: tt.err})
			w := doRequest(router, http.MethodGet, "/api/prices/search?name=Charizard", nil)
			if w.Code != tt.expected {
				t.Errorf("Expected %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
		})
	}

	t.Run("no match", func(t *testing.T) {
		router, _ := setupTestRouter(t, &stubCatalog{})
		w := doRequest(router, http.MethodGet, "/api/prices/search?name=Missingno", nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})
}

func TestSearchCardsByName(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	w := doRequest(router, http.MethodGet, "/api/prices/cards?name=Charizard&limit=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Results []prices.CardResult `json:"results"`
	}
	decode(t, w, &resp)
	if len(resp.Results) != 1 || resp.Results[0].Details.CardName != "Charizard" {
		t.Errorf("Expected one annotated Charizard, got %+v", resp.Results)
	}

	w = doRequest(router, http.MethodGet, "/api/prices/cards?name=Missingno", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("Expected empty results list, got %d %s", w.Code, w.Body.String())
	}
}

func TestSearchCardsByName_CSV(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	w := doRequest(router, http.MethodGet, "/api/prices/cards?name=Charizard&format=csv", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected CSV content type, got %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d: %q", len(lines), w.Body.String())
	}
	if !strings.HasPrefix(lines[0], "ID,Product") {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "350.00") {
		t.Errorf("Expected Charizard's loose price in %q", lines[1])
	}
}

func TestConvertToCardData(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	body := map[string]interface{}{
		"result": map[string]interface{}{
			"id":          "1",
			"productName": "Pokemon Charizard Base Set 1999 #4",
			"consoleName": "Pokemon Base Set",
			"prices":      map[string]int{"loose-price": 35000},
		},
		"query": map[string]interface{}{"name": "Charizard"},
	}
	w := doRequest(router, http.MethodPost, "/api/prices/convert", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var card model.CardData
	decode(t, w, &card)
	if card.Name != "Charizard" || card.Set != "Base Set" || card.Year != 1999 {
		t.Errorf("Unexpected card: %+v", card)
	}
	if card.CurrentValue.String() != "350" || card.PriceSource != prices.PriceSource {
		t.Errorf("Unexpected value fields: %s %s", card.CurrentValue, card.PriceSource)
	}

	if w := doRequest(router, http.MethodPost, "/api/prices/convert", map[string]interface{}{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty result, got %d", w.Code)
	}
}

func TestGetProduct(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	w := doRequest(router, http.MethodGet, "/api/prices/product/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result prices.CardResult
	decode(t, w, &result)
	if result.ProductName != "Pokemon Charizard Base Set 1999 #4" || result.Details.CardNumber != "4" {
		t.Errorf("Unexpected product: %+v", result)
	}

	if w := doRequest(router, http.MethodGet, "/api/prices/product/999", nil); w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 for unknown product, got %d", w.Code)
	}
}

func TestSets(t *testing.T) {
	router, setsPath := setupTestRouter(t, defaultCatalog())

	w := doRequest(router, http.MethodGet, "/api/sets?year=1999", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Base Set (EN)") {
		t.Fatalf("Expected 1999 sets, got %d %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/api/sets", map[string]interface{}{"year": 1999, "value": "Base Set Shadowless"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if _, err := os.Stat(setsPath); err != nil {
		t.Errorf("Expected custom sets to be persisted: %v", err)
	}

	w = doRequest(router, http.MethodPost, "/api/sets", map[string]interface{}{"year": 1999, "value": "Base Set"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"added":false`) {
		t.Errorf("Expected duplicate to be reported, got %d %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/api/sets", map[string]interface{}{"year": 1999, "value": "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank value, got %d", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/sets", nil)
	var resp struct {
		Years map[string][]sets.Option `json:"years"`
	}
	decode(t, w, &resp)
	if len(resp.Years["1999"]) != 3 {
		t.Errorf("Expected 3 sets in 1999 after adding one, got %+v", resp.Years["1999"])
	}
}

func TestCacheEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	doRequest(router, http.MethodGet, "/api/prices/search?name=Charizard", nil)

	var stats cache.Stats
	decode(t, doRequest(router, http.MethodGet, "/api/cache/stats", nil), &stats)
	if stats.Entries != 1 {
		t.Errorf("Expected 1 cache entry, got %+v", stats)
	}

	if w := doRequest(router, http.MethodDelete, "/api/cache", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected 200 from clear, got %d", w.Code)
	}
	decode(t, doRequest(router, http.MethodGet, "/api/cache/stats", nil), &stats)
	if stats.Entries != 0 {
		t.Errorf("Expected empty cache after clear, got %d entries", stats.Entries)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())
	doRequest(router, http.MethodGet, "/api/prices/search?name=Charizard", nil)

	w := doRequest(router, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pcmatch_searches_total") {
		t.Error("Expected match metrics to be exported")
	}
}

func TestCORS(t *testing.T) {
	router, _ := setupTestRouter(t, defaultCatalog())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}
}
