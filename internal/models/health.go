package models

import (
	"encoding/json"
	"time"

	"respiguard/internal/scoring"
)

// SymptomLog 用户自报症状记录（symptom_logs 表）
type SymptomLog struct {
	LogID        string              `json:"log_id" db:"log_id"`
	UserID       string              `json:"user_id" db:"user_id"`
	PhlegmColor  scoring.PhlegmColor `json:"phlegm_color" db:"phlegm_color"`
	InhalerUsage int                 `json:"inhaler_usage" db:"inhaler_usage"`
	Triggers     []string            `json:"triggers,omitempty" db:"triggers"` // 如 pollen, smoke, exercise
	Notes        string              `json:"notes,omitempty" db:"notes"`
	LoggedAt     time.Time           `json:"logged_at" db:"logged_at"`
}

// Observation returns the engine view of this log.
func (l *SymptomLog) Observation() scoring.SymptomObservation {
	return scoring.SymptomObservation{PhlegmColor: l.PhlegmColor, InhalerUsage: l.InhalerUsage}
}

// ScoreKind 评分类别
type ScoreKind string

const (
	ScoreKindRisk  ScoreKind = "risk"
	ScoreKindSleep ScoreKind = "sleep"
)

func (k ScoreKind) Valid() bool {
	return k == ScoreKindRisk || k == ScoreKindSleep
}

// ScoreRecord 评分历史（score_records 表）
// Detail 保存完整的 RiskScore / SleepScore JSON
type ScoreRecord struct {
	RecordID    string          `json:"record_id" db:"record_id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Kind        ScoreKind       `json:"kind" db:"kind"`
	Score       int             `json:"score" db:"score"`
	Level       string          `json:"level,omitempty" db:"level"` // risk: Low/Moderate/High; sleep: scheme
	Explanation string          `json:"explanation" db:"explanation"`
	Detail      json.RawMessage `json:"detail,omitempty" db:"detail"`
	ScoredAt    time.Time       `json:"scored_at" db:"scored_at"`
}

// GoalType 目标类型
type GoalType string

const (
	GoalInhalerUsage GoalType = "inhalerUsage"
	GoalSleepScore   GoalType = "sleepScore"
)

func (t GoalType) Valid() bool {
	return t == GoalInhalerUsage || t == GoalSleepScore
}

// Goal 用户健康目标（goals 表）
type Goal struct {
	GoalID      string    `json:"goal_id" db:"goal_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Type        GoalType  `json:"type" db:"goal_type"`
	Target      int       `json:"target" db:"target"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// GoalProgress 目标进度（计算所得，不落库）
type GoalProgress struct {
	Goal         Goal   `json:"goal"`
	Current      int    `json:"current"`
	Progress     int    `json:"progress"` // 0-100
	ProgressText string `json:"progress_text"`
	OnTrack      bool   `json:"on_track"`
}

// EnvironmentSnapshot 环境数据提供方返回的当前空气/花粉状况
type EnvironmentSnapshot struct {
	AQI          int                 `json:"aqi"`
	AQICategory  string              `json:"aqi_category"`
	Pollen       scoring.PollenLevel `json:"pollen"`
	LocationName string              `json:"location_name"`
	Temperature  float64             `json:"temperature"`
	Humidity     float64             `json:"humidity"`
	PM25         float64             `json:"pm25"`
	Ozone        float64             `json:"ozone"`
	SO2          float64             `json:"so2"`
	NO2          float64             `json:"no2"`
	FetchedAt    time.Time           `json:"fetched_at"`
}

// Reading returns the subset the risk engine consumes.
func (e *EnvironmentSnapshot) Reading() scoring.EnvironmentalReading {
	return scoring.EnvironmentalReading{AQI: e.AQI, Pollen: e.Pollen}
}
