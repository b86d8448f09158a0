package testutil

import (
	"os"
)

const (
	// Test token environment variables
	TestPriceChartingToken = "TEST_PRICECHARTING_TOKEN"

	// DefaultTestToken has the 40 characters the catalog client requires.
	DefaultTestToken = "0123456789abcdef0123456789abcdef01234567"
)

// GetTestToken returns a test token from environment variable or default
func GetTestToken(envVar, defaultValue string) string {
	if token := os.Getenv(envVar); token != "" {
		return token
	}
	return defaultValue
}

// GetTestPriceChartingToken returns test token for PriceCharting API
func GetTestPriceChartingToken() string {
	return GetTestToken(TestPriceChartingToken, DefaultTestToken)
}

// GetTestBaseURL returns a test base URL for the given service
func GetTestBaseURL(service string) string {
	switch service {
	case "pricecharting":
		return "https://www.pricecharting.test"
	default:
		return "https://api.test.local"
	}
}
