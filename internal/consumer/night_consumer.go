package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"respiguard/common/mqtt"
	"respiguard/internal/config"
	"respiguard/internal/models"
	"respiguard/internal/scoring"

	"go.uber.org/zap"
)

// NightRecorder 评分并保存一晚的睡眠数据（由 service.HealthService 实现）
type NightRecorder interface {
	RecordNight(ctx context.Context, msg *models.NightlySummaryMessage) (*scoring.SleepScore, error)
}

// Subscriber MQTT 订阅接口（*mqtt.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// NightConsumer 订阅夜间声学摘要主题，逐条计算睡眠评分
type NightConsumer struct {
	config     *config.Config
	subscriber Subscriber
	recorder   NightRecorder
	logger     *zap.Logger
	ctx        context.Context
}

func NewNightConsumer(cfg *config.Config, subscriber Subscriber, recorder NightRecorder, logger *zap.Logger) *NightConsumer {
	return &NightConsumer{
		config:     cfg,
		subscriber: subscriber,
		recorder:   recorder,
		logger:     logger,
	}
}

// Start 订阅主题；ctx 取消后调用 Stop 退订
func (c *NightConsumer) Start(ctx context.Context) error {
	c.ctx = ctx
	topic := c.config.Topics.Nights
	if err := c.subscriber.Subscribe(topic, c.config.MQTT.QoS, c.HandleMessage); err != nil {
		return fmt.Errorf("failed to subscribe night topic: %w", err)
	}
	c.logger.Info("Night consumer started", zap.String("topic", topic))
	return nil
}

func (c *NightConsumer) Stop() error {
	return c.subscriber.Unsubscribe(c.config.Topics.Nights)
}

// HandleMessage 处理一条夜间摘要；返回的错误由 MQTT 客户端记录后丢弃
func (c *NightConsumer) HandleMessage(topic string, payload []byte) error {
	var msg models.NightlySummaryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to decode night summary: %w", err)
	}
	if msg.UserID == "" {
		msg.UserID = userFromTopic(topic)
	}
	if msg.UserID == "" {
		return fmt.Errorf("night summary without user_id on topic %s", topic)
	}

	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	score, err := c.recorder.RecordNight(ctx, &msg)
	if err != nil {
		return fmt.Errorf("failed to record night for user %s: %w", msg.UserID, err)
	}

	c.logger.Info("Night scored",
		zap.String("user_id", msg.UserID),
		zap.String("scheme", string(score.Scheme)),
		zap.Int("sleep_score", score.Score),
	)
	return nil
}

// userFromTopic 从 respiguard/<user_id>/night 中取出 user_id
func userFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2]
}
