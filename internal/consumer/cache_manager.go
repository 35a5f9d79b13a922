package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"respiguard/internal/config"
	"respiguard/internal/models"
	"respiguard/internal/scoring"

	"go.uber.org/zap"
)

// 缓存类别（key 后缀）
const (
	cacheKindRisk        = "risk"
	cacheKindSleep       = "sleep"
	cacheKindEnvironment = "environment"
)

// CacheManager 每个用户最新评分/环境数据的 Redis 缓存
// key 格式：<prefix><user_id>:<kind>
type CacheManager struct {
	config *config.Config
	kv     KVStore
	logger *zap.Logger
}

// NewCacheManager 创建缓存管理器
func NewCacheManager(cfg *config.Config, kv KVStore, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		config: cfg,
		kv:     kv,
		logger: logger,
	}
}

func (c *CacheManager) key(userID, kind string) string {
	return fmt.Sprintf("%s%s:%s", c.config.Cache.KeyPrefix, userID, kind)
}

func (c *CacheManager) SetLatestRisk(ctx context.Context, userID string, score *scoring.RiskScore) error {
	return c.setJSON(ctx, userID, cacheKindRisk, score)
}

func (c *CacheManager) GetLatestRisk(ctx context.Context, userID string) (*scoring.RiskScore, error) {
	var score scoring.RiskScore
	if err := c.getJSON(ctx, userID, cacheKindRisk, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

func (c *CacheManager) SetLatestSleep(ctx context.Context, userID string, score *scoring.SleepScore) error {
	return c.setJSON(ctx, userID, cacheKindSleep, score)
}

func (c *CacheManager) GetLatestSleep(ctx context.Context, userID string) (*scoring.SleepScore, error) {
	var score scoring.SleepScore
	if err := c.getJSON(ctx, userID, cacheKindSleep, &score); err != nil {
		return nil, err
	}
	return &score, nil
}

// SetEnvironment 缓存用户所在位置最近一次环境数据
func (c *CacheManager) SetEnvironment(ctx context.Context, userID string, env *models.EnvironmentSnapshot) error {
	return c.setJSON(ctx, userID, cacheKindEnvironment, env)
}

func (c *CacheManager) GetEnvironment(ctx context.Context, userID string) (*models.EnvironmentSnapshot, error) {
	var env models.EnvironmentSnapshot
	if err := c.getJSON(ctx, userID, cacheKindEnvironment, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (c *CacheManager) setJSON(ctx context.Context, userID, kind string, v interface{}) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	key := c.key(userID, kind)

	jsonData, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s cache: %w", kind, err)
	}
	if err := c.kv.Set(ctx, key, string(jsonData), c.config.Cache.TTL); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("Updated cache",
		zap.String("user_id", userID),
		zap.String("key", key),
	)
	return nil
}

// getJSON 未命中时返回 ErrCacheMiss
func (c *CacheManager) getJSON(ctx context.Context, userID, kind string, v interface{}) error {
	if userID == "" {
		return fmt.Errorf("user_id is required")
	}
	val, err := c.kv.Get(ctx, c.key(userID, kind))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(val), v); err != nil {
		return fmt.Errorf("failed to unmarshal %s cache: %w", kind, err)
	}
	return nil
}
