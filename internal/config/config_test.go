package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "respiguard", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.False(t, cfg.MQTTEnabled)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)

	assert.Equal(t, "detailed", cfg.Scoring.DefaultScheme)
	assert.Equal(t, "respiguard:user:", cfg.Cache.KeyPrefix)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "respiguard:scores", cfg.Stream.Scores)
	assert.Equal(t, "respiguard/+/night", cfg.Topics.Nights)
	assert.Equal(t, "respiguard/alerts", cfg.Topics.Alerts)
	assert.Equal(t, "respiguard/%s/notifications", cfg.Topics.Notifications)
	assert.Equal(t, "respiguard-notifier", cfg.Stream.Group)
	assert.Equal(t, 5*time.Second, cfg.Stream.Block)

	assert.Equal(t, 10*time.Second, cfg.Environment.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Assistant.Timeout)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("REDIS_ADDR", "test-redis:6380")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_BROKER", "tcp://broker:1883")
	t.Setenv("SLEEP_SCHEME", "simple")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("ASSISTANT_API_KEY", "secret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.True(t, cfg.MQTTEnabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "simple", cfg.Scoring.DefaultScheme)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "secret", cfg.Assistant.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
	t.Setenv("TEST_INT", "-3")
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
	t.Setenv("TEST_INT", "12")
	assert.Equal(t, 12, getEnvInt("TEST_INT", 7))
}
