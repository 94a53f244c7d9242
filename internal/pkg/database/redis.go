package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisConfig configures the client shared by the selection store, submit guard and websocket fan-out
type RedisConfig struct {
	URL      string
	PoolSize int
	// Required makes an unreachable server an error. Otherwise callers get a nil client and fall
	// back to in-process stores.
	Required bool
}

// NewRedis creates a new Redis client.
// Returns nil without error when the URL is empty, or when the server is unreachable and not required.
func NewRedis(cfg RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		log.Warn().Msg("Redis URL not configured, selections and submit locks stay in process memory")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	opt.MinIdleConns = opt.PoolSize / 5
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		if cfg.Required {
			return nil, err
		}
		log.Warn().Err(err).Msg("Redis unreachable, selections and submit locks stay in process memory")
		return nil, nil
	}

	log.Info().Str("addr", opt.Addr).Msg("Connected to Redis")
	return client, nil
}

// CloseRedis closes the Redis connection
func CloseRedis(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis connection")
		return
	}
	log.Info().Msg("Redis connection closed")
}
