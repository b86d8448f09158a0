package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guarzo/pcmatch/internal/prices"
)

type CacheHandler struct {
	priceService *prices.Service
}

func NewCacheHandler(priceService *prices.Service) *CacheHandler {
	return &CacheHandler{priceService: priceService}
}

func (h *CacheHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.priceService.CacheStats())
}

func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.priceService.ClearCache(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
