package assistant

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"respiguard/internal/models"
	"respiguard/internal/scoring"
)

// Prediction 未来 24-48 小时风险预测
type Prediction struct {
	PredictedRiskScore int    `json:"predicted_risk_score"`
	ProactiveAlert     string `json:"proactive_alert"`
	Source             string `json:"source"` // "assistant" 或 "fallback"
}

const (
	SourceAssistant = "assistant"
	SourceFallback  = "fallback"
)

// ParsePrediction 从回复中取出 JSON 对象并校验分数范围
func ParsePrediction(reply string) (*Prediction, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in prediction reply")
	}

	var p Prediction
	if err := json.Unmarshal([]byte(reply[start:end+1]), &p); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}
	if p.PredictedRiskScore < 0 || p.PredictedRiskScore > 100 {
		return nil, fmt.Errorf("predicted risk score out of range: %d", p.PredictedRiskScore)
	}
	if strings.TrimSpace(p.ProactiveAlert) == "" {
		return nil, fmt.Errorf("prediction without alert")
	}
	p.Source = SourceAssistant
	return &p, nil
}

// FallbackPrediction 提供方不可用时的确定性预测
// 最近 3 次风险分（scores 最新在前）取均值；高花粉 +10，AQI > 100 +10；截断到 [0,100]
func FallbackPrediction(scores []int, forecast *models.EnvironmentSnapshot) *Prediction {
	recent := scores
	if len(recent) > 3 {
		recent = recent[:3]
	}
	base := 0.0
	if len(recent) > 0 {
		sum := 0
		for _, s := range recent {
			sum += s
		}
		base = float64(sum) / float64(len(recent))
	}

	var triggers []string
	if forecast != nil {
		if forecast.Pollen == scoring.PollenHigh {
			base += 10
			triggers = append(triggers, "high pollen")
		}
		if forecast.AQI > 100 {
			base += 10
			triggers = append(triggers, fmt.Sprintf("poor air quality (AQI %d)", forecast.AQI))
		}
	}

	score := int(math.Round(base))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return &Prediction{
		PredictedRiskScore: score,
		ProactiveAlert:     fallbackAlert(score, triggers),
		Source:             SourceFallback,
	}
}

func fallbackAlert(score int, triggers []string) string {
	level := scoring.RiskLevelFor(score)
	switch {
	case len(triggers) > 0 && level != scoring.RiskLow:
		return fmt.Sprintf("%s is forecast for the next 24-48 hours. Remember to take your controller medication and consider staying indoors.",
			capitalizeFirst(strings.Join(triggers, " and ")))
	case level == scoring.RiskHigh:
		return "Your recent scores suggest elevated risk. Keep your rescue inhaler close and contact your care team if symptoms worsen."
	case len(triggers) > 0:
		return fmt.Sprintf("%s is forecast. Your risk looks manageable, but limit time outdoors if you notice symptoms.",
			capitalizeFirst(strings.Join(triggers, " and ")))
	default:
		return "The forecast looks good for the next couple of days. Continue your current routine and enjoy the clear air!"
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
