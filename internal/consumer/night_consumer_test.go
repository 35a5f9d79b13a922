package consumer_test

import (
	"context"
	"errors"
	"testing"

	"respiguard/common/mqtt"
	"respiguard/internal/consumer"
	"respiguard/internal/models"
	"respiguard/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubscriber struct {
	topic   string
	qos     byte
	handler mqtt.MessageHandler
	unsub   []string
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.topic, f.qos, f.handler = topic, qos, handler
	return nil
}

func (f *fakeSubscriber) Unsubscribe(topics ...string) error {
	f.unsub = append(f.unsub, topics...)
	return nil
}

type fakeRecorder struct {
	got []*models.NightlySummaryMessage
	err error
}

func (f *fakeRecorder) RecordNight(ctx context.Context, msg *models.NightlySummaryMessage) (*scoring.SleepScore, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = append(f.got, msg)
	s, err := scoring.ScoreDetailed(msg.Night)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func TestNightConsumer_SubscribesAndRecords(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := &fakeRecorder{}
	c := consumer.NewNightConsumer(testConfig(), sub, rec, zap.NewNop())

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, "respiguard/+/night", sub.topic)
	assert.Equal(t, byte(1), sub.qos)
	require.NotNil(t, sub.handler)

	payload := []byte(`{"user_id":"user-1","night":{"average_breathing_rate":15,"breathing_rate_stability":1.5,"coughs_per_hour":0,"percent_wheeze_time":0,"non_respiratory_events_per_hour":1}}`)
	require.NoError(t, sub.handler("respiguard/user-1/night", payload))
	require.Len(t, rec.got, 1)
	assert.Equal(t, "user-1", rec.got[0].UserID)
	assert.Equal(t, 15.0, rec.got[0].Night.AverageBreathingRate)

	require.NoError(t, c.Stop())
	assert.Equal(t, []string{"respiguard/+/night"}, sub.unsub)
}

func TestNightConsumer_UserFromTopic(t *testing.T) {
	rec := &fakeRecorder{}
	c := consumer.NewNightConsumer(testConfig(), &fakeSubscriber{}, rec, zap.NewNop())

	payload := []byte(`{"night":{"average_breathing_rate":14}}`)
	require.NoError(t, c.HandleMessage("respiguard/user-42/night", payload))
	require.Len(t, rec.got, 1)
	assert.Equal(t, "user-42", rec.got[0].UserID)
}

func TestNightConsumer_BadMessages(t *testing.T) {
	rec := &fakeRecorder{}
	c := consumer.NewNightConsumer(testConfig(), &fakeSubscriber{}, rec, zap.NewNop())

	err := c.HandleMessage("respiguard/user-1/night", []byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")

	err = c.HandleMessage("night", []byte(`{"night":{"average_breathing_rate":14}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without user_id")

	rec.err = errors.New("db down")
	err = c.HandleMessage("respiguard/user-1/night", []byte(`{"night":{"average_breathing_rate":14}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Empty(t, rec.got)
}
