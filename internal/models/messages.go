package models

import (
	"time"

	"respiguard/internal/scoring"
)

// NightlySummaryMessage 夜间监测设备通过 MQTT 上报的整夜声学摘要
// Scheme 为空时使用服务默认方案；simple 方案读取 Acoustic
type NightlySummaryMessage struct {
	UserID   string                         `json:"user_id"`
	Scheme   string                         `json:"scheme,omitempty"`
	Night    scoring.NightlyAcousticSummary `json:"night"`
	Acoustic *scoring.AcousticObservation   `json:"acoustic,omitempty"`
	EndedAt  time.Time                      `json:"ended_at"`
}

// ScoreEvent 写入 Redis 评分事件流的消息
type ScoreEvent struct {
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	Kind     ScoreKind `json:"kind"`
	Score    int       `json:"score"`
	Level    string    `json:"level,omitempty"`
	ScoredAt time.Time `json:"scored_at"`
}

// Location 紧急求助时的用户位置
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EmergencyAlert SOS 告警（发布到 MQTT 告警主题）
type EmergencyAlert struct {
	AlertID   string    `json:"alert_id"`
	UserID    string    `json:"user_id"`
	Contact   string    `json:"contact"`
	Message   string    `json:"message"`
	RiskScore *int      `json:"risk_score,omitempty"`
	Location  *Location `json:"location,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}
