package middleware

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/event-ticketing/internal/config"
)

// maxKeyBodyBytes bounds how much of a request body a KeyFunc may read.
const maxKeyBodyBytes = 64 << 10

// tokenBucket refills `refill` tokens every `interval_ms` up to
// `capacity` and takes one token per call.  Returns {allowed, remaining,
// retry_after_ms}.
var tokenBucket = redis.NewScript(`
local now_ms, capacity, refill, interval_ms, ttl_ms =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'stamp'))
if tokens == nil or stamp == nil then
    tokens, stamp = capacity, now_ms
end

local steps = math.floor(math.max(0, now_ms - stamp) / interval_ms)
if steps > 0 then
    tokens = math.min(capacity, tokens + steps * refill)
    stamp = stamp + steps * interval_ms
end

local allowed, wait = 0, 0
if tokens > 0 then
    allowed, tokens = 1, tokens - 1
else
    wait = math.max(0, interval_ms - (now_ms - stamp))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('PEXPIRE', KEYS[1], ttl_ms)
return {allowed, tokens, wait}
`)

// KeyFunc names the bucket a request draws from.
type KeyFunc func(c echo.Context) string

// Decision is the outcome of one draw from a bucket.
type Decision struct {
    Allowed    bool
    Remaining  int64
    RetryAfter time.Duration
}

// RateLimiter keeps one token bucket per key in Redis.  Without Redis, or
// when disabled, every request is allowed.
type RateLimiter struct {
    cfg config.RateLimitConfig
    rdb *redis.Client
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client) *RateLimiter {
    return &RateLimiter{cfg: cfg, rdb: rdb}
}

func (l *RateLimiter) active() bool {
    return l != nil && l.cfg.Enabled && l.rdb != nil
}

// Allow takes a token from the bucket named key.
func (l *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
    if !l.active() {
        return Decision{Allowed: true}, nil
    }
    vals, err := tokenBucket.Run(ctx, l.rdb, []string{l.cfg.Prefix + ":" + key},
        time.Now().UnixMilli(),
        l.cfg.Capacity,
        l.cfg.RefillTokens,
        l.cfg.RefillInterval.Milliseconds(),
        l.cfg.TTL.Milliseconds(),
    ).Int64Slice()
    if err != nil {
        return Decision{}, err
    }
    return decisionFrom(vals)
}

func decisionFrom(vals []int64) (Decision, error) {
    if len(vals) != 3 {
        return Decision{}, fmt.Errorf("ratelimit: unexpected script result %v", vals)
    }
    return Decision{
        Allowed:    vals[0] == 1,
        Remaining:  vals[1],
        RetryAfter: time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// Middleware limits requests by the bucket key returns.  Redis errors let
// the request through.
func (l *RateLimiter) Middleware(key KeyFunc) echo.MiddlewareFunc {
    if !l.active() {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            k := key(c)
            d, err := l.Allow(c.Request().Context(), k)
            if err != nil {
                c.Logger().Warnf("ratelimit: key=%s: %v", k, err)
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
            if l.cfg.Debug {
                h.Set("X-RateLimit-Key", k)
            }
            if d.Allowed {
                return next(c)
            }

            secs := int(math.Ceil(d.RetryAfter.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            if l.cfg.Debug {
                c.Logger().Infof("ratelimit: block key=%s retry=%s", k, d.RetryAfter)
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "success":     false,
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

// ClientKey keys by client IP, route, or both ("ip", "route", "ip_route").
func ClientKey(strategy string) KeyFunc {
    return func(c echo.Context) string {
        ip := c.RealIP()
        if ip == "" {
            ip = "unknown"
        }
        route := c.Request().Method + " " + c.Path()
        switch strings.ToLower(strategy) {
        case "ip":
            return "ip:" + ip
        case "route":
            return "route:" + route
        }
        return "ip:" + ip + ":route:" + route
    }
}

// CustomerKey gives each customer_email in a JSON body its own bucket per
// route, so one buyer cannot drain a shared client address.  Requests
// without an email fall back.  The body is restored for the handler.
func CustomerKey(fallback KeyFunc) KeyFunc {
    return func(c echo.Context) string {
        req := c.Request()
        if req.Body == nil {
            return fallback(c)
        }
        raw, err := io.ReadAll(io.LimitReader(req.Body, maxKeyBodyBytes))
        rest := req.Body
        req.Body = struct {
            io.Reader
            io.Closer
        }{io.MultiReader(bytes.NewReader(raw), rest), rest}
        if err != nil {
            return fallback(c)
        }

        var body struct {
            CustomerEmail string `json:"customer_email"`
        }
        if json.Unmarshal(raw, &body) != nil {
            return fallback(c)
        }
        email := strings.ToLower(strings.TrimSpace(body.CustomerEmail))
        if email == "" {
            return fallback(c)
        }
        return "customer:" + email + ":route:" + req.Method + " " + c.Path()
    }
}
