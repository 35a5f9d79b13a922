package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"respiguard/internal/assistant"
	"respiguard/internal/models"
	"respiguard/internal/scoring"

	"go.uber.org/zap"
)

const (
	insightWindowDays   = 30
	insightHistoryLimit = 365 // ListScoreHistory 的记录数上限
	predictionHistory   = 10
)

// Insights 基于历史评分与症状记录生成趋势洞察
func (s *HealthService) Insights(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if s.deps.Assistant == nil {
		return "", fmt.Errorf("assistant %w", ErrNotConfigured)
	}

	since := s.now().AddDate(0, 0, -insightWindowDays)
	var history []*models.ScoreRecord
	var logs []*models.SymptomLog
	if s.deps.Scores != nil {
		records, err := s.deps.Scores.ListScoreHistory(ctx, userID, "", insightHistoryLimit)
		if err != nil {
			return "", err
		}
		history = scoredSince(records, since)
	}
	if s.deps.Symptoms != nil {
		var err error
		if logs, err = s.deps.Symptoms.ListSymptomLogsSince(ctx, userID, since); err != nil {
			return "", err
		}
	}

	prompt := assistant.InsightsPrompt(history, logs, s.cachedEnvironment(ctx, userID))
	return s.deps.Assistant.Generate(ctx, prompt)
}

// Recommendations 个性化行动建议；acoustic 可选
func (s *HealthService) Recommendations(ctx context.Context, userID string, acoustic *scoring.AcousticObservation) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if acoustic != nil {
		if err := scoring.ValidateAcoustic(*acoustic); err != nil {
			return "", err
		}
	}
	if s.deps.Assistant == nil {
		return "", fmt.Errorf("assistant %w", ErrNotConfigured)
	}

	var logs []*models.SymptomLog
	if s.deps.Symptoms != nil {
		var err error
		if logs, err = s.deps.Symptoms.ListSymptomLogsSince(ctx, userID, s.now().AddDate(0, 0, -7)); err != nil {
			return "", err
		}
	}

	prompt := assistant.RecommendationsPrompt(s.latestRisk(ctx, userID), acoustic, s.cachedEnvironment(ctx, userID), logs)
	return s.deps.Assistant.Generate(ctx, prompt)
}

// PredictFutureRisk 预测未来 24-48 小时风险
// 生成服务不可用或回复无法解析时使用确定性预测
func (s *HealthService) PredictFutureRisk(ctx context.Context, userID string, forecast *models.EnvironmentSnapshot) (*assistant.Prediction, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if forecast != nil {
		if err := scoring.ValidateEnvironment(forecast.Reading()); err != nil {
			return nil, err
		}
	} else {
		forecast = s.cachedEnvironment(ctx, userID)
	}

	var scores []int
	if s.deps.Scores != nil {
		history, err := s.deps.Scores.ListScoreHistory(ctx, userID, models.ScoreKindRisk, predictionHistory)
		if err != nil {
			return nil, err
		}
		for _, r := range history {
			scores = append(scores, r.Score)
		}
	}

	if s.deps.Assistant != nil {
		reply, err := s.deps.Assistant.Generate(ctx, assistant.FutureRiskPrompt(scores, forecast))
		if err == nil {
			p, perr := assistant.ParsePrediction(reply)
			if perr == nil {
				return p, nil
			}
			err = perr
		}
		s.logger.Warn("Falling back to deterministic risk prediction", zap.String("user_id", userID), zap.Error(err))
	}
	return assistant.FallbackPrediction(scores, forecast), nil
}

// Chat 虚拟医生对话；最后一条必须是用户消息
func (s *HealthService) Chat(ctx context.Context, userID string, messages []assistant.ChatMessage, acoustic *scoring.AcousticObservation) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages are required", ErrInvalidRequest)
	}
	for _, m := range messages {
		if m.Role != "user" && m.Role != "model" {
			return "", fmt.Errorf("%w: unknown message role %q", ErrInvalidRequest, m.Role)
		}
	}
	last := messages[len(messages)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return "", fmt.Errorf("%w: last message must be a non-empty user message", ErrInvalidRequest)
	}
	if s.deps.Assistant == nil {
		return "", fmt.Errorf("assistant %w", ErrNotConfigured)
	}

	summary := assistant.HealthSummary{
		Acoustic:       acoustic,
		Environment:    s.cachedEnvironment(ctx, userID),
		SleepScore:     s.latestSleepScore(ctx, userID),
		LatestSymptoms: s.latestSymptomLog(ctx, userID),
	}
	if risk := s.latestRisk(ctx, userID); risk != nil {
		summary.RiskScore = &risk.Score
	}

	reply, err := s.deps.Assistant.Generate(ctx, assistant.ChatPrompt(summary, messages))
	if err != nil {
		return "", err
	}
	return assistant.EnsureDisclaimer(reply, messages), nil
}

// AnalyzeCough 咳嗽录音分析（干咳/湿咳）
func (s *HealthService) AnalyzeCough(ctx context.Context, audioDataURI string) (string, error) {
	prompt, err := assistant.CoughAnalysisPrompt(audioDataURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if s.deps.Assistant == nil {
		return "", fmt.Errorf("assistant %w", ErrNotConfigured)
	}
	return s.deps.Assistant.Generate(ctx, prompt)
}

// scoredSince 保留 since 之后（含）的评分记录，保持原有顺序
func scoredSince(records []*models.ScoreRecord, since time.Time) []*models.ScoreRecord {
	out := make([]*models.ScoreRecord, 0, len(records))
	for _, r := range records {
		if !r.ScoredAt.Before(since) {
			out = append(out, r)
		}
	}
	return out
}
