package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guarzo/pcmatch/internal/api/handlers"
	"github.com/guarzo/pcmatch/internal/prices"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

// RouterConfig holds the HTTP-level settings.
type RouterConfig struct {
	// CORSOrigins lists allowed origins; empty allows any origin.
	CORSOrigins []string
}

func SetupRouter(priceService *prices.Service, cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(requestID())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	priceHandler := handlers.NewPriceHandler(priceService)
	setHandler := handlers.NewSetHandler(priceService.SetCatalog())
	cacheHandler := handlers.NewCacheHandler(priceService)

	api := router.Group("/api")
	{
		p := api.Group("/prices")
		{
			p.GET("/search", priceHandler.SearchCardPrice)
			p.GET("/cards", priceHandler.SearchCardsByName)
			p.POST("/convert", priceHandler.ConvertToCardData)
			p.GET("/product/:id", priceHandler.GetProduct)
		}

		s := api.Group("/sets")
		{
			s.GET("", setHandler.ListSets)
			s.POST("", setHandler.AddCustomSet)
		}

		c := api.Group("/cache")
		{
			c.GET("/stats", cacheHandler.Stats)
			c.DELETE("", cacheHandler.Clear)
		}
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

// requestID tags each request with an id, reusing one the caller sent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
