package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "respiguard/common/config"
)

// Config respiguard 服务配置
type Config struct {
	HTTP struct {
		Addr string
	}

	DBEnabled bool
	Database  commoncfg.DatabaseConfig
	Redis     commoncfg.RedisConfig

	MQTTEnabled bool
	MQTT        commoncfg.MQTTConfig

	Scoring struct {
		DefaultScheme string // "simple" 或 "detailed"
	}

	// Redis 缓存与事件流
	Cache struct {
		KeyPrefix string        // 如 "respiguard:user:"
		TTL       time.Duration // 最新评分/观测的缓存时间
	}
	Stream struct {
		Scores   string        // 评分事件流，如 "respiguard:scores"
		Group    string        // 高风险通知消费者组
		Consumer string        // 消费者名称
		Block    time.Duration // XREADGROUP 阻塞时间
	}

	// MQTT 主题
	Topics struct {
		Nights        string // 夜间声学摘要，如 "respiguard/+/night"
		Alerts        string // SOS 告警发布主题
		Notifications string // 高风险提醒，%s 为 user_id
	}

	Environment struct {
		BaseURL string
		Timeout time.Duration
	}

	Assistant struct {
		BaseURL string
		Model   string
		APIKey  string
		Timeout time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "respiguard"
	cfg.Database.SSLMode = "disable"
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTTEnabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "respiguard"
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.Scoring.DefaultScheme = getEnv("SLEEP_SCHEME", "detailed")

	cfg.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", "respiguard:user:")
	cfg.Cache.TTL = time.Duration(getEnvInt("CACHE_TTL_SECONDS", 86400)) * time.Second
	cfg.Stream.Scores = getEnv("SCORE_STREAM", "respiguard:scores")
	cfg.Stream.Group = getEnv("SCORE_STREAM_GROUP", "respiguard-notifier")
	cfg.Stream.Consumer = getEnv("SCORE_STREAM_CONSUMER", "notifier-1")
	cfg.Stream.Block = time.Duration(getEnvInt("SCORE_STREAM_BLOCK_MS", 5000)) * time.Millisecond

	cfg.Topics.Nights = getEnv("MQTT_NIGHT_TOPIC", "respiguard/+/night")
	cfg.Topics.Alerts = getEnv("MQTT_ALERT_TOPIC", "respiguard/alerts")
	cfg.Topics.Notifications = getEnv("MQTT_NOTIFICATION_TOPIC", "respiguard/%s/notifications")

	cfg.Environment.BaseURL = getEnv("ENVIRONMENT_API_URL", "http://localhost:9090")
	cfg.Environment.Timeout = time.Duration(getEnvInt("ENVIRONMENT_API_TIMEOUT_SECONDS", 10)) * time.Second

	cfg.Assistant.BaseURL = getEnv("ASSISTANT_API_URL", "http://localhost:9091")
	cfg.Assistant.Model = getEnv("ASSISTANT_MODEL", "gemini-2.0-flash")
	cfg.Assistant.APIKey = getEnv("ASSISTANT_API_KEY", "")
	cfg.Assistant.Timeout = time.Duration(getEnvInt("ASSISTANT_API_TIMEOUT_SECONDS", 30)) * time.Second

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultValue
}
