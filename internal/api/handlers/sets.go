package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guarzo/pcmatch/internal/sets"
)

type SetHandler struct {
	catalog *sets.Catalog
}

func NewSetHandler(catalog *sets.Catalog) *SetHandler {
	return &SetHandler{catalog: catalog}
}

// ListSets returns the sets of one year, or every year when none is given.
func (h *SetHandler) ListSets(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "set catalog not configured"})
		return
	}

	if y := c.Query("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "year must be a number"})
			return
		}
		opts := h.catalog.ForYear(year)
		if opts == nil {
			opts = []sets.Option{}
		}
		c.JSON(http.StatusOK, gin.H{"year": year, "sets": opts})
		return
	}

	years := make(map[int][]sets.Option)
	for _, y := range h.catalog.Years() {
		years[y] = h.catalog.ForYear(y)
	}
	c.JSON(http.StatusOK, gin.H{"years": years})
}

type addSetRequest struct {
	Year  int    `json:"year" binding:"required"`
	Value string `json:"value" binding:"required"`
	Label string `json:"label"`
}

// AddCustomSet appends a user set to a year and persists it.
func (h *SetHandler) AddCustomSet(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "set catalog not configured"})
		return
	}

	var req addSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	opt := sets.Option{Value: req.Value, Label: req.Label}
	added, err := h.catalog.AddCustomSet(req.Year, opt)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"added": added,
		"year":  req.Year,
		"sets":  h.catalog.ForYear(req.Year),
	})
}
