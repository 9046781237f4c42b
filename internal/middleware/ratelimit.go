package middleware

import (
    "context"
    "fmt"
    "math"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/taskflow/internal/config"
)

// gcraScript implements the generic cell rate algorithm on a single key
// holding the theoretical arrival time (tat) in milliseconds.  The key
// expires when the bucket is full again.  Returns {allowed, remaining,
// retry_after_ms}.
var gcraScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])

local tat = tonumber(redis.call('GET', KEYS[1])) or now
if tat < now then
    tat = now
end

local allow_at = tat + interval - burst * interval
if now < allow_at then
    return {0, 0, allow_at - now}
end

tat = tat + interval
redis.call('SET', KEYS[1], tat, 'PX', tat - now)
return {1, math.floor((now - (tat - burst * interval)) / interval), 0}
`)

type rateDecision struct {
    allowed    bool
    remaining  int64
    retryAfter time.Duration
}

type limiter struct {
    rdb redis.Scripter
    cfg config.RateLimitConfig
    now func() time.Time
}

func (l *limiter) take(ctx context.Context, key string) (rateDecision, error) {
    args := []any{l.now().UnixMilli(), l.cfg.Burst, l.cfg.Interval().Milliseconds()}
    vals, err := gcraScript.Run(ctx, l.rdb, []string{key}, args...).Int64Slice()
    if err != nil {
        return rateDecision{}, err
    }
    if len(vals) != 3 {
        return rateDecision{}, fmt.Errorf("unexpected script result %v", vals)
    }
    return rateDecision{
        allowed:    vals[0] == 1,
        remaining:  vals[1],
        retryAfter: time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// RateLimit throttles requests per client through Redis.  It is mounted on
// the /api/auth group, so it covers register, login, refresh, logout and me.  Without a
// Redis client or with the limiter disabled it is a pass-through.  Redis
// errors let the request through: an outage must not lock users out.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return limit(&limiter{rdb: rdb, cfg: cfg, now: time.Now})
}

func limit(l *limiter) echo.MiddlewareFunc {
    cfg := l.cfg
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            d, err := l.take(c.Request().Context(), key)
            if err != nil {
                c.Logger().Warnf("ratelimit: %s: %v", key, err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
            if !d.allowed {
                h.Set("Retry-After", strconv.Itoa(int(math.Ceil(d.retryAfter.Seconds()))))
                return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
            }
            return next(c)
        }
    }
}

// rateKey partitions the bucket by client address, and by route unless
// KeyBy is "ip".
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    if cfg.KeyBy == "ip" {
        return cfg.Prefix + ":" + ip
    }
    return cfg.Prefix + ":" + ip + ":" + c.Request().Method + " " + c.Path()
}
