package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"respiguard/internal/assistant"
	"respiguard/internal/models"
	"respiguard/internal/scoring"
	"respiguard/internal/service"

	"go.uber.org/zap"
)

// ConnectionChecker 报告连接状态（*mqtt.Client 实现）
type ConnectionChecker interface {
	IsConnected() bool
}

// HealthHandler 评分、历史、目标与辅助功能接口
type HealthHandler struct {
	svc    *service.HealthService
	mqtt   ConnectionChecker
	logger *zap.Logger
}

func NewHealthHandler(svc *service.HealthService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{svc: svc, logger: logger}
}

// SetMQTT 启用 MQTT 时注册连接状态
func (h *HealthHandler) SetMQTT(c ConnectionChecker) {
	h.mqtt = c
}

// GET /healthz
// mqtt: connected | disconnected | disabled；断开时 status 为 degraded
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	status, mqtt := "ok", "disabled"
	if h.mqtt != nil {
		mqtt = "connected"
		if !h.mqtt.IsConnected() {
			status, mqtt = "degraded", "disconnected"
		}
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"status": status, "mqtt": mqtt}))
}

// POST /api/v1/risk-score
// body: RiskRequest；带 X-User-Id 时保存评分
func (h *HealthHandler) RiskScore(w http.ResponseWriter, r *http.Request) {
	var req service.RiskRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	score, err := h.svc.AssessRisk(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(score))
}

// POST /api/v1/sleep-score
// body: SleepInput；scheme 为空时使用默认方案
func (h *HealthHandler) SleepScore(w http.ResponseWriter, r *http.Request) {
	var in scoring.SleepInput
	if err := readBodyJSON(r, maxBodyBytes, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	score, err := h.svc.ComputeSleep(r.Context(), userID(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(score))
}

type symptomRequest struct {
	PhlegmColor  string                        `json:"phlegm_color"`
	InhalerUsage int                           `json:"inhaler_usage"`
	Triggers     []string                      `json:"triggers"`
	Notes        string                        `json:"notes"`
	Acoustic     *scoring.AcousticObservation  `json:"acoustic"`
	Environment  *scoring.EnvironmentalReading `json:"environment"`
	Seed         *int64                        `json:"seed"`
	UseCachedEnv bool                          `json:"use_cached_environment"`
}

// POST /api/v1/symptoms
// 保存症状记录并返回更新后的风险评分
func (h *HealthHandler) LogSymptom(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req symptomRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}

	log := &models.SymptomLog{
		PhlegmColor:  scoring.PhlegmColor(req.PhlegmColor),
		InhalerUsage: req.InhalerUsage,
		Triggers:     req.Triggers,
		Notes:        req.Notes,
	}
	risk := service.RiskRequest{
		Input:                scoring.RiskInput{Acoustic: req.Acoustic, Environment: req.Environment},
		Seed:                 req.Seed,
		UseCachedEnvironment: req.UseCachedEnv,
	}
	saved, score, err := h.svc.LogSymptom(r.Context(), user, log, risk)
	if err != nil && saved == nil {
		writeError(w, err)
		return
	}
	if err != nil {
		// 记录已保存，仅评分未保存；返回 200 避免客户端重试产生重复记录
		h.logger.Warn("Symptom log saved but risk score failed",
			zap.String("user_id", user),
			zap.String("log_id", saved.LogID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Ok(map[string]any{
			"log":     saved,
			"risk":    nil,
			"warning": "symptom log saved, risk score not recorded: " + err.Error(),
		}))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"log":  saved,
		"risk": score,
	}))
}

// POST /api/v1/nights
func (h *HealthHandler) RecordNight(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var msg models.NightlySummaryMessage
	if err := readBodyJSON(r, maxBodyBytes, &msg); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	msg.UserID = user
	score, err := h.svc.RecordNight(r.Context(), &msg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(score))
}

// GET /api/v1/history?kind=risk|sleep&limit=30
func (h *HealthHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	records, err := h.svc.ScoreHistory(r.Context(), user, models.ScoreKind(q.Get("kind")), parseInt(q.Get("limit"), 0))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*models.ScoreRecord{}
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": records, "total": len(records)}))
}

// GET /api/v1/history/export?kind=risk|sleep
func (h *HealthHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	data, err := h.svc.ExportHistory(r.Context(), user, models.ScoreKind(r.URL.Query().Get("kind")))
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("respiguard_history_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write export", zap.Error(err))
	}
}

// GET /api/v1/goals
func (h *HealthHandler) GoalProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	progress, err := h.svc.GoalProgress(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(progress))
}

// POST /api/v1/goals
// body: {"type":"inhalerUsage"|"sleepScore","target":N}
func (h *HealthHandler) AddGoal(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Type   models.GoalType `json:"type"`
		Target int             `json:"target"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	goal, err := h.svc.AddGoal(r.Context(), user, req.Type, req.Target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(goal))
}

// GET /api/v1/environment?lat=..&lon=..
func (h *HealthHandler) Environment(w http.ResponseWriter, r *http.Request) {
	lat, err := parseFloat(r.URL.Query().Get("lat"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid lat"))
		return
	}
	lon, err := parseFloat(r.URL.Query().Get("lon"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid lon"))
		return
	}
	env, err := h.svc.Environment(r.Context(), userID(r), lat, lon)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(env))
}

// POST /api/v1/insights
func (h *HealthHandler) Insights(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	text, err := h.svc.Insights(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"insights": text}))
}

// POST /api/v1/recommendations
// body: {"acoustic": {...}}（可选）
func (h *HealthHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Acoustic *scoring.AcousticObservation `json:"acoustic"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	text, err := h.svc.Recommendations(r.Context(), user, req.Acoustic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"recommended_actions": text}))
}

// POST /api/v1/future-risk
// body: {"forecast": EnvironmentSnapshot}（可选，缺省使用缓存的环境数据）
func (h *HealthHandler) FutureRisk(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Forecast *models.EnvironmentSnapshot `json:"forecast"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	p, err := h.svc.PredictFutureRisk(r.Context(), user, req.Forecast)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(p))
}

// POST /api/v1/chat
// body: {"messages":[{"role":"user","content":"..."}],"acoustic":{...}}
func (h *HealthHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Messages []assistant.ChatMessage      `json:"messages"`
		Acoustic *scoring.AcousticObservation `json:"acoustic"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	reply, err := h.svc.Chat(r.Context(), user, req.Messages, req.Acoustic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"reply": reply}))
}

// POST /api/v1/cough-analysis
// body: {"audio_data_uri":"data:audio/...;base64,..."}
func (h *HealthHandler) CoughAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Audio string `json:"audio_data_uri"`
	}
	if err := readBodyJSON(r, maxAudioBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	text, err := h.svc.AnalyzeCough(r.Context(), req.Audio)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"analysis": text}))
}

// POST /api/v1/sos
func (h *HealthHandler) SOS(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req service.SOSRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	alert, err := h.svc.SendEmergencyAlert(r.Context(), user, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(alert))
}
