package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"respiguard/internal/models"
	"respiguard/internal/scoring"
)

// ChatMessage 对话消息；Role 为 "user" 或 "model"
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HealthSummary 对话上下文中的最新健康数据（缺失项为 nil）
type HealthSummary struct {
	RiskScore      *int                         `json:"risk_score,omitempty"`
	SleepScore     *int                         `json:"sleep_score,omitempty"`
	Acoustic       *scoring.AcousticObservation `json:"acoustic,omitempty"`
	Environment    *models.EnvironmentSnapshot  `json:"environment,omitempty"`
	LatestSymptoms *models.SymptomLog           `json:"latest_symptoms,omitempty"`
}

// Disclaimer 首次回复必须包含
const Disclaimer = "**Disclaimer:** I am an AI assistant. Please consult a real healthcare professional for medical advice."

// InsightsPrompt 数据趋势洞察（不做诊断）
func InsightsPrompt(history []*models.ScoreRecord, logs []*models.SymptomLog, env *models.EnvironmentSnapshot) string {
	var b strings.Builder
	b.WriteString("You are an assistant that analyzes a user's respiratory health data to surface trends.\n\n")
	b.WriteString("Score history (newest first):\n")
	writeScores(&b, history)
	b.WriteString("\nSymptom logs (newest first):\n")
	writeLogs(&b, logs)
	b.WriteString("\nEnvironment: ")
	b.WriteString(describeEnvironment(env))
	b.WriteString("\n\nDescribe overall trends and useful observations so the user can understand their condition ")
	b.WriteString("and discuss it with their doctor. Do not make any diagnosis or medical recommendations. ")
	b.WriteString("Be concise and easy to understand.")
	return b.String()
}

// RecommendationsPrompt 个性化行动建议
func RecommendationsPrompt(risk *scoring.RiskScore, acoustic *scoring.AcousticObservation, env *models.EnvironmentSnapshot, logs []*models.SymptomLog) string {
	var b strings.Builder
	b.WriteString("You are an assistant that gives personalized action recommendations for respiratory disease management.\n\n")
	if risk != nil {
		fmt.Fprintf(&b, "Exacerbation risk score: %d/100 (%s). %s\n", risk.Score, risk.Level, risk.Explanation)
	} else {
		b.WriteString("Exacerbation risk score: unknown\n")
	}
	if acoustic != nil {
		fmt.Fprintf(&b, "Acoustic data: %.1f coughs/hr, wheezing=%t, breathing rate %.1f bpm\n",
			acoustic.CoughFrequency, acoustic.Wheezing, acoustic.BreathingRate)
	}
	b.WriteString("Environment: ")
	b.WriteString(describeEnvironment(env))
	b.WriteString("\nSymptom logs (newest first):\n")
	writeLogs(&b, logs)
	b.WriteString("\nConsider recent trends, the likely impact of the environment and medication adherence. ")
	b.WriteString("If the risk is low, suggest maintaining current practices. If it is high, suggest concrete steps ")
	b.WriteString("to mitigate a potential exacerbation. Output a short list of clear actions.")
	return b.String()
}

// FutureRiskPrompt 未来 24-48 小时风险预测；要求返回 JSON
func FutureRiskPrompt(scores []int, forecast *models.EnvironmentSnapshot) string {
	var b strings.Builder
	b.WriteString("You are a predictive health assistant specializing in respiratory conditions. ")
	b.WriteString("Forecast the user's exacerbation risk for the next 24-48 hours.\n\n")
	fmt.Fprintf(&b, "Historical risk scores (newest first): %s\n", joinInts(scores))
	b.WriteString("Environmental forecast: ")
	b.WriteString(describeEnvironment(forecast))
	b.WriteString("\n\nPredict a new risk score from 0 to 100 and write a concise, encouraging, proactive alert. ")
	b.WriteString("If an environmental trigger drives the risk, name it and suggest concrete actions.\n")
	b.WriteString(`Respond only with JSON: {"predicted_risk_score": <int>, "proactive_alert": "<text>"}`)
	return b.String()
}

// ChatPrompt 虚拟医生对话；首轮回复要求包含免责声明
func ChatPrompt(summary HealthSummary, messages []ChatMessage) string {
	var b strings.Builder
	b.WriteString("You are an empathetic assistant specializing in chronic respiratory conditions. ")
	b.WriteString("You are not a real doctor and cannot diagnose or prescribe. ")
	b.WriteString("Your first response must include a disclaimer that you are an AI assistant and that the user ")
	b.WriteString("should consult a real healthcare professional for medical advice.\n\n")

	b.WriteString("Patient summary:\n")
	fmt.Fprintf(&b, "- Exacerbation risk score: %s\n", optionalInt(summary.RiskScore))
	if a := summary.Acoustic; a != nil {
		fmt.Fprintf(&b, "- Overnight cough frequency: %.1f per hour\n", a.CoughFrequency)
		fmt.Fprintf(&b, "- Wheezing detected: %t\n", a.Wheezing)
		fmt.Fprintf(&b, "- Average breathing rate: %.1f bpm\n", a.BreathingRate)
	}
	if e := summary.Environment; e != nil {
		fmt.Fprintf(&b, "- Current AQI: %d (%s)\n", e.AQI, e.AQICategory)
		fmt.Fprintf(&b, "- Current pollen: %s\n", e.Pollen)
	}
	fmt.Fprintf(&b, "- Last sleep quality score: %s\n", optionalInt(summary.SleepScore))
	if l := summary.LatestSymptoms; l != nil {
		fmt.Fprintf(&b, "- Last symptom log: %s phlegm, %d inhaler uses\n", l.PhlegmColor, l.InhalerUsage)
	}

	b.WriteString("\nGive personalized, actionable advice on diet, lifestyle and self-care based on this data.\n")
	b.WriteString("\nConversation history:\n")
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	b.WriteString("\nReply to the latest user message. Your role is \"model\".")
	return b.String()
}

var audioDataURI = regexp.MustCompile(`^data:audio/[a-zA-Z0-9.+-]+;base64,[A-Za-z0-9+/=]+$`)

// CoughAnalysisPrompt 咳嗽录音分析（干咳/湿咳）；audio 必须为 base64 data URI
func CoughAnalysisPrompt(audio string) (string, error) {
	if !audioDataURI.MatchString(audio) {
		return "", fmt.Errorf("audio must be a base64 data URI with an audio mime type")
	}
	return "You analyze audio recordings of coughs. Determine whether the cough sounds wet or dry " +
		"and give a one-sentence analysis. Do not provide medical advice or a diagnosis.\n\nAudio: " + audio, nil
}

// EnsureDisclaimer 首轮回复缺少免责声明时追加
func EnsureDisclaimer(reply string, messages []ChatMessage) string {
	for _, m := range messages {
		if m.Role == "model" {
			return reply
		}
	}
	if strings.Contains(strings.ToLower(reply), "disclaimer") {
		return reply
	}
	return reply + "\n\n" + Disclaimer
}

func writeScores(b *strings.Builder, history []*models.ScoreRecord) {
	if len(history) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, r := range history {
		fmt.Fprintf(b, "- %s %s score %d", r.ScoredAt.Format("2006-01-02"), r.Kind, r.Score)
		if r.Level != "" {
			fmt.Fprintf(b, " (%s)", r.Level)
		}
		b.WriteString("\n")
	}
}

func writeLogs(b *strings.Builder, logs []*models.SymptomLog) {
	if len(logs) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, l := range logs {
		fmt.Fprintf(b, "- %s %s phlegm, %d inhaler uses", l.LoggedAt.Format("2006-01-02"), l.PhlegmColor, l.InhalerUsage)
		if len(l.Triggers) > 0 {
			fmt.Fprintf(b, ", triggers: %s", strings.Join(l.Triggers, ", "))
		}
		b.WriteString("\n")
	}
}

func describeEnvironment(e *models.EnvironmentSnapshot) string {
	if e == nil {
		return "unknown"
	}
	s := fmt.Sprintf("AQI %d (%s), pollen %s", e.AQI, scoring.AQICategoryFor(e.AQI), e.Pollen)
	if e.LocationName != "" {
		s += " in " + e.LocationName
	}
	return s
}

func optionalInt(v *int) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *v)
}

func joinInts(v []int) string {
	if len(v) == 0 {
		return "none"
	}
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
