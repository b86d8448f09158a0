package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guarzo/pcmatch/internal/model"
	"github.com/guarzo/pcmatch/internal/prices"
	"github.com/guarzo/pcmatch/internal/report"
)

type PriceHandler struct {
	priceService *prices.Service
}

func NewPriceHandler(priceService *prices.Service) *PriceHandler {
	return &PriceHandler{
		priceService: priceService,
	}
}

// SearchCardPrice ranks catalog products against a card description
// given as query parameters.
func (h *PriceHandler) SearchCardPrice(c *gin.Context) {
	q := model.CardQuery{
		Name:           strings.TrimSpace(c.Query("name")),
		Set:            strings.TrimSpace(c.Query("set")),
		GradingCompany: strings.TrimSpace(c.Query("gradingCompany")),
		Grade:          strings.TrimSpace(c.Query("grade")),
	}
	if q.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
			return
		}
		q.Year = year
	}

	ranked, err := h.priceService.SearchCardPrice(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]prices.CardResult, 0, len(ranked))
	for _, sc := range ranked {
		results = append(results, h.priceService.AnnotateScored(sc))
	}
	respondResults(c, results, gin.H{
		"query":   q,
		"results": results,
	})
}

// respondResults writes body as JSON, or results as CSV when the
// request asks for format=csv.
func respondResults(c *gin.Context, results []prices.CardResult, body gin.H) {
	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, body)
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="pricecharting.csv"`)
	c.Status(http.StatusOK)
	if err := report.WriteResults(c.Writer, results); err != nil {
		log.Printf("request %s: csv export failed: %v", c.GetString("requestID"), err)
	}
}

// SearchCardsByName runs the name-only search.
func (h *PriceHandler) SearchCardsByName(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative number"})
			return
		}
		limit = n
	}

	results, err := h.priceService.SearchCardsByName(c.Request.Context(), name, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []prices.CardResult{}
	}
	respondResults(c, results, gin.H{"results": results})
}

type convertRequest struct {
	Result prices.CardResult `json:"result"`
	Query  model.CardQuery   `json:"query"`
}

// ConvertToCardData maps a search result onto the card form.
func (h *PriceHandler) ConvertToCardData(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Result.ID == "" && req.Result.ProductName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result must carry an id or product name"})
		return
	}

	c.JSON(http.StatusOK, h.priceService.ConvertToCardData(req.Result, req.Query))
}

// GetProduct returns one catalog product with its parsed details.
func (h *PriceHandler) GetProduct(c *gin.Context) {
	product, err := h.priceService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.priceService.Annotate(*product))
}
