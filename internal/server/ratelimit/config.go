package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" enables prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Settings are the operator-facing knobs, expressed per minute.
type Settings struct {
	RequestsPerMinute      int
	Burst                  int
	MatchRequestsPerMinute int
	MatchBurst             int
	Whitelist              []string
}

// NewConfig builds a limiter configuration. A zero RequestsPerMinute disables limiting.
func NewConfig(s Settings) *Config {
	if s.RequestsPerMinute <= 0 {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    s.RequestsPerMinute,
		DefaultBurst:    s.Burst,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       parseIPList(strings.Join(s.Whitelist, ",")),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(s.MatchRequestsPerMinute, s.MatchBurst),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations.
func DefaultEndpointConfigs(matchPerMinute, matchBurst int) []EndpointConfig {
	configs := []EndpointConfig{
		// Write operations (moderate limits)
		{Path: "/v1/profile", Method: "PUT", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/v1/matches/", Method: "PUT", Limit: 60, Window: time.Minute, Burst: 10},
	}
	// Match computation fans out to the model: strictest limit
	if matchPerMinute > 0 {
		configs = append([]EndpointConfig{
			{Path: "/v1/matches", Method: "POST", Limit: matchPerMinute, Window: time.Minute, Burst: matchBurst},
		}, configs...)
	}
	return configs
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	ips := strings.Split(list, ",")
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}

	return result
}
