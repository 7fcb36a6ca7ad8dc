// Package redis implementa el TriggerStore sobre go-redis/v9.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ClientConfig contiene los parámetros de conexión.
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Client envuelve un *redis.Client.
type Client struct {
	rdb *redis.Client
}

// New crea el cliente y verifica la conexión con un PING.
func New(ctx context.Context, cfg ClientConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
