package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonredis "respiguard/common/redis"
	"respiguard/internal/config"
	"respiguard/internal/models"
	"respiguard/internal/scoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Publisher MQTT 发布接口（*mqtt.Client 实现）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// RiskNotification 高风险提醒
type RiskNotification struct {
	UserID   string    `json:"user_id"`
	Score    int       `json:"risk_score"`
	Level    string    `json:"level"`
	Message  string    `json:"message"`
	ScoredAt time.Time `json:"scored_at"`
}

// ScoreEventConsumer 通过消费者组读取评分事件流，风险等级为 High 时推送提醒
type ScoreEventConsumer struct {
	config    *config.Config
	client    *redis.Client
	publisher Publisher
	logger    *zap.Logger
}

func NewScoreEventConsumer(cfg *config.Config, client *redis.Client, publisher Publisher, logger *zap.Logger) *ScoreEventConsumer {
	return &ScoreEventConsumer{
		config:    cfg,
		client:    client,
		publisher: publisher,
		logger:    logger,
	}
}

// Start 创建消费者组并循环读取，直到 ctx 取消
func (c *ScoreEventConsumer) Start(ctx context.Context) error {
	if err := commonredis.CreateConsumerGroup(ctx, c.client, c.config.Stream.Scores, c.config.Stream.Group); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	c.logger.Info("Score event consumer started",
		zap.String("stream", c.config.Stream.Scores),
		zap.String("group", c.config.Stream.Group),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := c.ProcessOnce(ctx, c.config.Stream.Block); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to read score events", zap.Error(err))
			time.Sleep(time.Second)
		}
	}
}

// ProcessOnce 读取一批消息并逐条处理；返回已确认的数量
// 单条处理失败只记录日志，消息仍然确认，避免毒消息反复投递
func (c *ScoreEventConsumer) ProcessOnce(ctx context.Context, block time.Duration) (int, error) {
	messages, err := commonredis.ReadFromStream(ctx, c.client,
		c.config.Stream.Scores, c.config.Stream.Group, c.config.Stream.Consumer, 10, block)
	if err != nil {
		return 0, err
	}

	acked := 0
	for _, msg := range messages {
		if err := c.handle(msg); err != nil {
			c.logger.Warn("Failed to handle score event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
		if err := commonredis.Ack(ctx, c.client, c.config.Stream.Scores, c.config.Stream.Group, msg.ID); err != nil {
			return acked, fmt.Errorf("failed to ack %s: %w", msg.ID, err)
		}
		acked++
	}
	return acked, nil
}

func (c *ScoreEventConsumer) handle(msg commonredis.StreamMessage) error {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message without data field")
	}
	var event models.ScoreEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return fmt.Errorf("failed to decode score event: %w", err)
	}
	if event.Kind != models.ScoreKindRisk || event.Level != string(scoring.RiskHigh) {
		return nil
	}

	n := RiskNotification{
		UserID:   event.UserID,
		Score:    event.Score,
		Level:    event.Level,
		Message:  fmt.Sprintf("Your exacerbation risk is high (%d/100). Keep your rescue inhaler close and follow your action plan.", event.Score),
		ScoredAt: event.ScoredAt,
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	topic := fmt.Sprintf(c.config.Topics.Notifications, event.UserID)
	if err := c.publisher.Publish(topic, c.config.MQTT.QoS, false, payload); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	c.logger.Info("High risk notification sent",
		zap.String("user_id", event.UserID),
		zap.Int("risk_score", event.Score),
	)
	return nil
}
