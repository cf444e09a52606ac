package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultJournalKey = "login:compensation:orphans"
	defaultJournalCap = 1000
)

// Config holds the connection settings and the shape of the compensation
// journal. Zero values select defaults.
type Config struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration

	JournalKey string
	JournalCap int64
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.JournalKey == "" {
		c.JournalKey = defaultJournalKey
	}
	if c.JournalCap <= 0 {
		c.JournalCap = defaultJournalCap
	}
	return c
}

func (c Config) options() *redis.Options {
	opts := &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  c.Timeout,
		ReadTimeout:  c.Timeout,
		WriteTimeout: c.Timeout,
	}
	if c.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

// OpenJournal connects to Redis, checks the connection with a ping and returns
// a journal that owns the client. Close releases it.
func OpenJournal(ctx context.Context, cfg Config) (*CompensationJournal, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(cfg.options())

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewCompensationJournal(client, cfg), nil
}
