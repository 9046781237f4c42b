package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// RateLimitConfig throttles the unauthenticated /api/auth endpoints per
// client.  A fresh client may make Burst attempts at once and then earns one
// attempt back every Interval().
type RateLimitConfig struct {
    Enabled   bool
    Burst     int
    PerMinute int
    KeyBy     string // "ip" or "ip_route"
    Prefix    string
}

// LoadRateLimitConfig reads RATE_LIMIT_ENABLED, RATE_LIMIT_BURST,
// RATE_LIMIT_PER_MINUTE, RATE_LIMIT_KEY and RATE_LIMIT_PREFIX.
func LoadRateLimitConfig() RateLimitConfig {
    c := RateLimitConfig{
        Enabled:   envBool("RATE_LIMIT_ENABLED", true),
        Burst:     envInt("RATE_LIMIT_BURST", 10),
        PerMinute: envInt("RATE_LIMIT_PER_MINUTE", 20),
        KeyBy:     strings.ToLower(envStr("RATE_LIMIT_KEY", "ip_route")),
        Prefix:    envStr("RATE_LIMIT_PREFIX", "rl:auth"),
    }
    if c.Burst < 1 {
        c.Burst = 1
    }
    if c.PerMinute < 1 {
        c.PerMinute = 1
    }
    if c.KeyBy != "ip" {
        c.KeyBy = "ip_route"
    }
    return c
}

// Interval is the time it takes to earn back one attempt.
func (c RateLimitConfig) Interval() time.Duration {
    if c.PerMinute < 1 {
        return time.Minute
    }
    return time.Minute / time.Duration(c.PerMinute)
}

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch strings.ToLower(os.Getenv(k)) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
        return dur
    }
    return d
}
