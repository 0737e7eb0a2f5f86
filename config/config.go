package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Platform  PlatformConfig
	Search    SearchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// PlatformConfig controls the connection to the remote scraping platform.
type PlatformConfig struct {
	// Token is the platform API credential. Empty means not configured;
	// live searches fail with PLATFORM_NOT_CONFIGURED before any network call.
	Token string

	// BaseURL is the platform API root.
	BaseURL string // default: "https://api.apify.com"

	// Actor is the scraping actor run for each search.
	Actor string // default: "apify/e-commerce-scraping-tool"

	// ConsoleURL is the root of the platform's web console, used to build
	// run URLs for display.
	ConsoleURL string // default: "https://console.apify.com"

	// WaitTimeout is the maximum time to wait for a remote job to finish.
	WaitTimeout time.Duration // default: 5m

	// PollInterval is the delay between job status checks.
	PollInterval time.Duration // default: 2s

	// HTTPTimeout is the per-request deadline for platform API calls.
	HTTPTimeout time.Duration // default: 30s

	// MockMode serves searches from the built-in catalog instead of the
	// remote platform. No credential required.
	MockMode bool // default: false
}

// SearchConfig controls search request defaults.
type SearchConfig struct {
	// DefaultMarketplace is used when the request omits one.
	DefaultMarketplace string // default: "www.amazon.com"

	// DefaultMaxResults is used when the request omits max_results.
	DefaultMaxResults int // default: 20

	// MaxResultsCap is the hard upper bound on max_results.
	MaxResultsCap int // default: 100

	// Currency is the platform's documented result currency.
	Currency string // default: "USD"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys (for MVP; replace with DB later).
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("FORAGE_HOST", "0.0.0.0"),
			Port: envIntOr("FORAGE_PORT", 8080),
			Mode: envOr("FORAGE_MODE", "release"),
		},
		Platform: PlatformConfig{
			Token:        os.Getenv("FORAGE_PLATFORM_TOKEN"),
			BaseURL:      envOr("FORAGE_PLATFORM_URL", "https://api.apify.com"),
			Actor:        envOr("FORAGE_ACTOR", "apify/e-commerce-scraping-tool"),
			ConsoleURL:   envOr("FORAGE_CONSOLE_URL", "https://console.apify.com"),
			WaitTimeout:  envDurationOr("FORAGE_WAIT_TIMEOUT", 5*time.Minute),
			PollInterval: envDurationOr("FORAGE_POLL_INTERVAL", 2*time.Second),
			HTTPTimeout:  envDurationOr("FORAGE_HTTP_TIMEOUT", 30*time.Second),
			MockMode:     envBoolOr("FORAGE_MOCK_MODE", false),
		},
		Search: SearchConfig{
			DefaultMarketplace: envOr("FORAGE_MARKETPLACE", "www.amazon.com"),
			DefaultMaxResults:  envIntOr("FORAGE_MAX_RESULTS", 20),
			MaxResultsCap:      envIntOr("FORAGE_MAX_RESULTS_CAP", 100),
			Currency:           envOr("FORAGE_CURRENCY", "USD"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("FORAGE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("FORAGE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FORAGE_RATE_RPS", 5.0),
			Burst:             envIntOr("FORAGE_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("FORAGE_LOG_LEVEL", "info"),
			Format: envOr("FORAGE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
