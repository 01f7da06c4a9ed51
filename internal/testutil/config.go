package testutil

import (
	"os"
	"strconv"
)

const (
	// Test credential environment variables
	TestEbayClientID     = "TEST_EBAY_CLIENT_ID"
	TestEbayClientSecret = "TEST_EBAY_CLIENT_SECRET"

	// Default test values when environment variables are not set
	DefaultTestClientID = "test-client-id"
	DefaultTestSecret   = "test-secret"
)

// GetTestCredential returns a test credential from environment variable or default
func GetTestCredential(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetTestEbayClientID returns the test client ID for the eBay API
func GetTestEbayClientID() string {
	return GetTestCredential(TestEbayClientID, DefaultTestClientID)
}

// GetTestEbayClientSecret returns the test client secret for the eBay API
func GetTestEbayClientSecret() string {
	return GetTestCredential(TestEbayClientSecret, DefaultTestSecret)
}

// IsTestMode returns true if we're running in test mode
func IsTestMode() bool {
	testMode := os.Getenv("TEST_MODE")
	if testMode == "" {
		return true // Default to test mode if not specified
	}

	enabled, _ := strconv.ParseBool(testMode)
	return enabled
}
