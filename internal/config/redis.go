package config

import (
    "context"
    "crypto/tls"
    "os"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig addresses the Redis server shared by the response cache
// and the rate limiter.
type RedisConfig struct {
    Addr        string
    Password    string
    DB          int
    TLS         bool
    SkipVerify  bool
    PingTimeout time.Duration
}

// LoadRedisConfig reads REDIS_ADDR, or REDIS_HOST and REDIS_PORT, plus
// REDIS_PASSWORD, REDIS_DB, REDIS_TLS and REDIS_TLS_SKIP_VERIFY.
// REDIS_HOST/REDIS_PORT take precedence when both forms are set.
func LoadRedisConfig() RedisConfig {
    addr := os.Getenv("REDIS_ADDR")
    host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    return RedisConfig{
        Addr:        addr,
        Password:    os.Getenv("REDIS_PASSWORD"),
        DB:          envInt("REDIS_DB", 0),
        TLS:         envBool("REDIS_TLS", false),
        SkipVerify:  envBool("REDIS_TLS_SKIP_VERIFY", false),
        PingTimeout: envDur("REDIS_PING_TIMEOUT", 2*time.Second),
    }
}

// NewRedisClient connects and pings.  It returns nil when the server is
// unreachable; the cache and the rate limiter then pass requests through.
func NewRedisClient(cfg RedisConfig) *redis.Client {
    opts := &redis.Options{
        Addr:     cfg.Addr,
        Password: cfg.Password,
        DB:       cfg.DB,
    }
    if cfg.TLS {
        host, _, _ := strings.Cut(cfg.Addr, ":")
        opts.TLSConfig = &tls.Config{ServerName: host, InsecureSkipVerify: cfg.SkipVerify}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
