package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guarzo/pcmatch/internal/prices"
)

// statusFor maps lookup errors onto HTTP statuses.
func statusFor(err error) int {
	var (
		ce *prices.ConfigurationError
		te *prices.TimeoutError
		ne *prices.NetworkError
		ae *prices.APIError
	)
	switch {
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable
	case errors.As(err, &te):
		return http.StatusGatewayTimeout
	case prices.IsNoMatch(err):
		return http.StatusNotFound
	case errors.As(err, &ne), errors.As(err, &ae):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request %s %s failed [%s]: %v", c.Request.Method, c.Request.URL.Path, c.GetString("requestID"), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
