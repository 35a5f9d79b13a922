package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"respiguard/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SOSRequest 紧急求助请求
type SOSRequest struct {
	Contact  string           `json:"contact"`
	Location *models.Location `json:"location,omitempty"`
}

// SendEmergencyAlert 组装 SOS 消息并发布到告警主题
func (s *HealthService) SendEmergencyAlert(ctx context.Context, userID string, req SOSRequest) (*models.EmergencyAlert, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if loc := req.Location; loc != nil {
		if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
			return nil, fmt.Errorf("%w: invalid location", ErrInvalidRequest)
		}
	}
	if s.deps.Alerts == nil {
		return nil, fmt.Errorf("alert publisher %w", ErrNotConfigured)
	}

	alert := &models.EmergencyAlert{
		AlertID:  uuid.New().String(),
		UserID:   userID,
		Contact:  req.Contact,
		Location: req.Location,
		SentAt:   s.now(),
	}
	if risk := s.latestRisk(ctx, userID); risk != nil {
		score := risk.Score
		alert.RiskScore = &score
	}
	alert.Message = EmergencyMessage(alert.RiskScore, req.Location, s.latestSymptomLog(ctx, userID))

	payload, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal emergency alert: %w", err)
	}
	if err := s.deps.Alerts.Publish(s.config.Topics.Alerts, s.config.MQTT.QoS, false, payload); err != nil {
		return nil, fmt.Errorf("failed to send emergency alert: %w", err)
	}

	s.logger.Warn("Emergency alert sent",
		zap.String("alert_id", alert.AlertID),
		zap.String("user_id", userID),
		zap.String("topic", s.config.Topics.Alerts),
	)
	return alert, nil
}

// EmergencyMessage SOS 文本；缺失项显示 N/A
func EmergencyMessage(riskScore *int, loc *models.Location, last *models.SymptomLog) string {
	risk, location := "N/A", "unavailable"
	if riskScore != nil {
		risk = fmt.Sprintf("%d/100", *riskScore)
	}
	if loc != nil {
		location = fmt.Sprintf("https://www.google.com/maps?q=%g,%g", loc.Latitude, loc.Longitude)
	}
	phlegm, usage, triggers := "N/A", "N/A", "N/A"
	if last != nil {
		phlegm = string(last.PhlegmColor)
		usage = fmt.Sprintf("%d", last.InhalerUsage)
		if len(last.Triggers) > 0 {
			triggers = strings.Join(last.Triggers, ", ")
		}
	}

	lines := []string{
		"EMERGENCY ALERT from RespiGuard:",
		"A user may require immediate assistance.",
		"- Current Risk Score: " + risk,
		"- Location: " + location,
		"Last Reported Vitals:",
		"- Phlegm Color: " + phlegm,
		"- Inhaler Usage: " + usage,
		"- Triggers: " + triggers,
	}
	return strings.Join(lines, "\n")
}
