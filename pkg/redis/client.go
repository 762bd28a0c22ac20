package redis

import (
	"context"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/aegis-nse/pkg/config"
)

// Client holds the optional ranking cache connection.
// A disabled client answers every call without touching the network.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb  *redis.Client
	addr string
}

// New connects and pings Redis. A disabled config yields a no-op client.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{}, nil
	}

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	c := &Client{rdb: rdb, addr: addr}
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return c, nil
}

// Ping checks the connection (nil for a disabled client)
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", c.addr, err)
	}
	return nil
}

// Status summarizes the connection for diagnostics
type Status struct {
	Addr       string
	Keys       int64
	TotalConns uint32
	IdleConns  uint32
}

// Status reports key count and pool usage of the selected DB
func (c *Client) Status(ctx context.Context) (*Status, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("redis disabled")
	}
	n, err := c.rdb.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("redis %s: %w", c.addr, err)
	}
	ps := c.rdb.PoolStats()
	return &Status{Addr: c.addr, Keys: n, TotalConns: ps.TotalConns, IdleConns: ps.IdleConns}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}
