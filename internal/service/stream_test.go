package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"respiguard/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	pub := NewStreamPublisher(client, "respiguard:scores")
	event := &models.ScoreEvent{EventID: "e-1", UserID: "user-1", Kind: models.ScoreKindRisk, Score: 72, Level: "High", ScoredAt: time.Now().UTC()}
	require.NoError(t, pub.PublishScoreEvent(context.Background(), event))

	msgs, err := client.XRange(context.Background(), "respiguard:scores", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var got models.ScoreEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &got))
	assert.Equal(t, "e-1", got.EventID)
	assert.Equal(t, 72, got.Score)
	assert.NotEmpty(t, msgs[0].Values["timestamp"])
}

func TestStreamPublisher_Error(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	err := NewStreamPublisher(client, "s").PublishScoreEvent(context.Background(), &models.ScoreEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish score event")
}
