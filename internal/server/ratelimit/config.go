package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern; "{}" matches one path segment, a trailing "/" matches any suffix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{
			Enabled: false,
		}
	}

	defaultLimit := getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000)
	defaultWindow := getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute)
	cleanupInterval := getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute)
	scanLimit := getEnvInt("RATE_LIMIT_SCAN_LIMIT", 600)

	allowlist := parseIPList(getEnvString("RATE_LIMIT_ALLOWLIST", ""))
	blocklist := parseIPList(getEnvString("RATE_LIMIT_BLOCKLIST", ""))

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    defaultLimit,
		DefaultWindow:   defaultWindow,
		CleanupInterval: cleanupInterval,
		Allowlist:       allowlist,
		Blocklist:       blocklist,
		EndpointConfigs: DefaultEndpointConfigs(scanLimit),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
// scanLimit is the per-minute allowance for endpoints that scan text.
func DefaultEndpointConfigs(scanLimit int) []EndpointConfig {
	burst := scanLimit / 10
	if burst < 1 {
		burst = 1
	}
	return []EndpointConfig{
		// Tier 1: Scanning (every call runs the whole catalog)
		{Path: "/analyze", Method: "POST", Limit: scanLimit, Window: time.Minute, Burst: burst},
		{Path: "/sessions/{}/text", Method: "PUT", Limit: scanLimit, Window: time.Minute, Burst: burst},

		// Tier 2: Write operations (moderate limits)
		{Path: "/sessions", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/sessions/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/history", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/history/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},

		// Tier 3: Disposition changes and reads - handled by default limit
		// Tier 4: Health check (unlimited) - handled by special case in matcher
	}
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
