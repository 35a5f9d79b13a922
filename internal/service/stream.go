package service

import (
	"context"
	"fmt"

	commonredis "respiguard/common/redis"
	"respiguard/internal/models"

	"github.com/go-redis/redis/v8"
)

// StreamPublisher 将评分事件写入 Redis Stream
type StreamPublisher struct {
	client *redis.Client
	stream string
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream}
}

func (p *StreamPublisher) PublishScoreEvent(ctx context.Context, event *models.ScoreEvent) error {
	if _, err := commonredis.PublishJSONToStream(ctx, p.client, p.stream, event); err != nil {
		return fmt.Errorf("failed to publish score event: %w", err)
	}
	return nil
}
