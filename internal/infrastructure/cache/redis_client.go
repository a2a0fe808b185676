// Package cache provides the Redis connection and the cache-backed adapters built on
// the CacheRepository port: recipe cache-aside and the redirect snapshot store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alchemorsel/fusionchef/internal/infrastructure/config"
)

// NewRedisClient opens a universal client (single node or cluster) and checks it with a ping
func NewRedisClient(cfg *config.Config, logger *zap.Logger) (redis.UniversalClient, error) {
	rc := cfg.Redis
	opts := &redis.UniversalOptions{
		Addrs:           []string{cfg.RedisAddr()},
		Password:        rc.Password,
		DB:              rc.Database,
		MaxRetries:      rc.MaxRetries,
		PoolSize:        rc.PoolSize,
		MinIdleConns:    rc.MinIdleConns,
		DialTimeout:     rc.DialTimeout,
		ReadTimeout:     rc.ReadTimeout,
		WriteTimeout:    rc.WriteTimeout,
		ConnMaxLifetime: rc.ConnMaxLifetime,
		ConnMaxIdleTime: 5 * time.Minute,
		PoolTimeout:     10 * time.Second,
	}

	if rc.EnableCluster && len(rc.ClusterNodes) > 0 {
		opts.Addrs = rc.ClusterNodes
		logger.Info("Redis cluster mode enabled", zap.Strings("nodes", rc.ClusterNodes))
	}

	client := redis.NewUniversalClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis client initialized successfully",
		zap.Strings("addrs", opts.Addrs),
		zap.Int("database", rc.Database))

	return client, nil
}
