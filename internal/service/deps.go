package service

import (
	"context"
	"errors"
	"time"

	"respiguard/internal/models"
	"respiguard/internal/scoring"
)

var (
	// ErrInvalidRequest 请求参数错误（HTTP 400）
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotConfigured 依赖组件未启用（HTTP 503）
	ErrNotConfigured = errors.New("not configured")
)

// SymptomStore 症状记录存储（repository.SymptomLogRepository）
type SymptomStore interface {
	CreateSymptomLog(ctx context.Context, log *models.SymptomLog) error
	ListSymptomLogsSince(ctx context.Context, userID string, since time.Time) ([]*models.SymptomLog, error)
	GetLatestSymptomLog(ctx context.Context, userID string) (*models.SymptomLog, error)
}

// ScoreStore 评分历史存储（repository.ScoreRepository）
type ScoreStore interface {
	CreateScoreRecord(ctx context.Context, rec *models.ScoreRecord) error
	ListScoreHistory(ctx context.Context, userID string, kind models.ScoreKind, limit int) ([]*models.ScoreRecord, error)
	GetLatestScore(ctx context.Context, userID string, kind models.ScoreKind) (*models.ScoreRecord, error)
}

// GoalStore 目标存储（repository.GoalRepository）
type GoalStore interface {
	CreateGoal(ctx context.Context, goal *models.Goal) error
	ListGoals(ctx context.Context, userID string) ([]*models.Goal, error)
}

// ScoreCache 最新评分/环境缓存（consumer.CacheManager）
type ScoreCache interface {
	SetLatestRisk(ctx context.Context, userID string, score *scoring.RiskScore) error
	GetLatestRisk(ctx context.Context, userID string) (*scoring.RiskScore, error)
	SetLatestSleep(ctx context.Context, userID string, score *scoring.SleepScore) error
	GetLatestSleep(ctx context.Context, userID string) (*scoring.SleepScore, error)
	SetEnvironment(ctx context.Context, userID string, env *models.EnvironmentSnapshot) error
	GetEnvironment(ctx context.Context, userID string) (*models.EnvironmentSnapshot, error)
}

// EventPublisher 评分事件发布（StreamPublisher）
type EventPublisher interface {
	PublishScoreEvent(ctx context.Context, event *models.ScoreEvent) error
}

// EnvironmentProvider 环境数据（environment.Client）
type EnvironmentProvider interface {
	Current(ctx context.Context, lat, lon float64) (*models.EnvironmentSnapshot, error)
}

// TextGenerator 生成式文本（assistant.Client）
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AlertPublisher MQTT 发布（mqtt.Client）
type AlertPublisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Deps HealthService 依赖；任一项为 nil 时相关功能返回 ErrNotConfigured 或跳过
type Deps struct {
	Symptoms    SymptomStore
	Scores      ScoreStore
	Goals       GoalStore
	Cache       ScoreCache
	Events      EventPublisher
	Environment EnvironmentProvider
	Assistant   TextGenerator
	Alerts      AlertPublisher
}
