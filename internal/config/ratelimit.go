package config

import "time"

// RateLimitConfig defines settings for the in-memory fixed-window
// rate limiter. State lives in the server process, keyed by client
// IP, and is cleared on restart; it is a soft throttle, not a
// security boundary.
type RateLimitConfig struct {
	Enabled bool
	Window  time.Duration // length of a counting window
	Max     int           // requests allowed per key per window
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig. Defaults match the original deployment: 100
// requests per minute per client address.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled: getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Window:  parseDur(getenv("RATE_LIMIT_WINDOW", "1m")),
		Max:     atoi(getenv("RATE_LIMIT_MAX", "100")),
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Max < 1 {
		cfg.Max = 100
	}
	return cfg
}
