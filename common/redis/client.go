package redis

import (
	"context"
	"fmt"
	"time"

	"respiguard/common/config"

	"github.com/go-redis/redis/v8"
)

// Client 类型别名，调用方无需直接引用 go-redis
type Client = redis.Client

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
	pingTimeout = 2 * time.Second
)

// NewRedisClient 创建 Redis 客户端（不建立连接，首次命令时连接）
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})
}

// Ping 在 pingTimeout 内测试连接
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis at %s: %w", client.Options().Addr, err)
	}
	return nil
}

// Close 关闭连接（允许 nil）
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
