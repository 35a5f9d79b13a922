package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"respiguard/internal/config"
	"respiguard/internal/consumer"
	"respiguard/internal/goals"
	"respiguard/internal/models"
	"respiguard/internal/repository"
	"respiguard/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RiskRequest 风险评分请求
// Seed 非空时用 JitterPosition(Seed) 取区间位置，否则取中点
// UseCachedEnvironment：未提供环境数据时使用缓存的最近一次环境数据
type RiskRequest struct {
	Input                scoring.RiskInput `json:"input"`
	Seed                 *int64            `json:"seed,omitempty"`
	UseCachedEnvironment bool              `json:"use_cached_environment,omitempty"`
}

// HealthService 评分引擎的宿主服务：评分、持久化、缓存、事件发布
type HealthService struct {
	config *config.Config
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

func NewHealthService(cfg *config.Config, deps Deps, logger *zap.Logger) *HealthService {
	return &HealthService{
		config: cfg,
		deps:   deps,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// DefaultScheme 配置的默认睡眠评分方案（无效时退回 detailed）
func (s *HealthService) DefaultScheme() scoring.Scheme {
	scheme, err := scoring.ParseScheme(s.config.Scoring.DefaultScheme)
	if err != nil {
		return scoring.SchemeDetailed
	}
	return scheme
}

// AssessRisk 计算风险评分；userID 非空时保存并发布
func (s *HealthService) AssessRisk(ctx context.Context, userID string, req RiskRequest) (*scoring.RiskScore, error) {
	in := req.Input
	if req.UseCachedEnvironment && in.Environment == nil && userID != "" && s.deps.Cache != nil {
		env, err := s.deps.Cache.GetEnvironment(ctx, userID)
		switch {
		case err == nil:
			reading := env.Reading()
			in.Environment = &reading
		case !errors.Is(err, consumer.ErrCacheMiss):
			s.logger.Warn("Failed to read cached environment", zap.String("user_id", userID), zap.Error(err))
		}
	}

	in, err := scoring.NormalizeRiskInput(in)
	if err != nil {
		return nil, err
	}

	p := scoring.DefaultBandPosition
	if req.Seed != nil {
		p = scoring.JitterPosition(*req.Seed)
	}
	score, err := scoring.ComputeRiskScoreAt(in, p)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return &score, nil
	}

	if err := s.recordScore(ctx, userID, models.ScoreKindRisk, score.Score, string(score.Level), score.Explanation, score); err != nil {
		return nil, err
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetLatestRisk(ctx, userID, &score); err != nil {
			s.logger.Warn("Failed to cache risk score", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return &score, nil
}

// ComputeSleep 计算睡眠评分；userID 非空时保存并发布
func (s *HealthService) ComputeSleep(ctx context.Context, userID string, in scoring.SleepInput) (*scoring.SleepScore, error) {
	if in.Scheme == "" {
		in.Scheme = s.DefaultScheme()
	}
	score, err := scoring.ComputeSleepScore(in)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return &score, nil
	}

	if err := s.recordScore(ctx, userID, models.ScoreKindSleep, score.Score, string(score.Scheme), score.NightInsight, score); err != nil {
		return nil, err
	}
	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetLatestSleep(ctx, userID, &score); err != nil {
			s.logger.Warn("Failed to cache sleep score", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return &score, nil
}

// RecordNight 处理一晚的监测摘要（MQTT 或 HTTP 上报）
func (s *HealthService) RecordNight(ctx context.Context, msg *models.NightlySummaryMessage) (*scoring.SleepScore, error) {
	if msg == nil || msg.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}

	scheme := s.DefaultScheme()
	if msg.Scheme != "" {
		var err error
		if scheme, err = scoring.ParseScheme(msg.Scheme); err != nil {
			return nil, err
		}
	}

	in := scoring.SleepInput{Scheme: scheme, Night: msg.Night}
	if scheme == scoring.SchemeSimple {
		if msg.Acoustic == nil {
			return nil, &scoring.InputError{Field: "acoustic", Reason: "required for the simple scheme"}
		}
		in.Acoustic = *msg.Acoustic
	}
	return s.ComputeSleep(ctx, msg.UserID, in)
}

// LogSymptom 保存症状记录，并以该记录为最新症状重新计算风险
// 记录保存后评分失败时返回已保存的 log 与错误（score 为 nil），调用方不应重试保存
func (s *HealthService) LogSymptom(ctx context.Context, userID string, log *models.SymptomLog, req RiskRequest) (*models.SymptomLog, *scoring.RiskScore, error) {
	if userID == "" {
		return nil, nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if log == nil {
		return nil, nil, fmt.Errorf("%w: symptom log is required", ErrInvalidRequest)
	}
	if s.deps.Symptoms == nil {
		return nil, nil, fmt.Errorf("symptom storage %w", ErrNotConfigured)
	}

	req.Input.Symptom = log.Observation()
	in, err := scoring.NormalizeRiskInput(req.Input)
	if err != nil {
		return nil, nil, err
	}
	if err := scoring.ValidateRiskInput(in); err != nil {
		return nil, nil, err
	}
	req.Input = in
	log.PhlegmColor = in.Symptom.PhlegmColor
	log.UserID = userID

	if err := s.deps.Symptoms.CreateSymptomLog(ctx, log); err != nil {
		return nil, nil, err
	}
	score, err := s.AssessRisk(ctx, userID, req)
	if err != nil {
		return log, nil, err
	}
	return log, score, nil
}

// ScoreHistory 评分历史
func (s *HealthService) ScoreHistory(ctx context.Context, userID string, kind models.ScoreKind, limit int) ([]*models.ScoreRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown score kind %q", ErrInvalidRequest, kind)
	}
	if s.deps.Scores == nil {
		return nil, fmt.Errorf("score storage %w", ErrNotConfigured)
	}
	return s.deps.Scores.ListScoreHistory(ctx, userID, kind, limit)
}

// AddGoal 新建目标（描述文本自动生成）
func (s *HealthService) AddGoal(ctx context.Context, userID string, goalType models.GoalType, target int) (*models.Goal, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if target < 0 {
		return nil, fmt.Errorf("%w: target must be a non-negative number", ErrInvalidRequest)
	}
	desc, err := goals.Describe(goalType, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if s.deps.Goals == nil {
		return nil, fmt.Errorf("goal storage %w", ErrNotConfigured)
	}

	goal := &models.Goal{UserID: userID, Type: goalType, Target: target, Description: desc}
	if err := s.deps.Goals.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// GoalProgress 全部目标的当前进度
func (s *HealthService) GoalProgress(ctx context.Context, userID string) ([]models.GoalProgress, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if s.deps.Goals == nil || s.deps.Symptoms == nil {
		return nil, fmt.Errorf("goal storage %w", ErrNotConfigured)
	}

	list, err := s.deps.Goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	since := s.now().Add(-goals.InhalerWindow)
	logs, err := s.deps.Symptoms.ListSymptomLogsSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	usage := goals.InhalerUsageSince(logs, since)
	sleep := s.latestSleepScore(ctx, userID)

	out := make([]models.GoalProgress, 0, len(list))
	for _, g := range list {
		out = append(out, goals.Progress(g, usage, sleep))
	}
	return out, nil
}

// Environment 获取当前环境数据；userID 非空时写入缓存
func (s *HealthService) Environment(ctx context.Context, userID string, lat, lon float64) (*models.EnvironmentSnapshot, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: invalid coordinates lat=%g lon=%g", ErrInvalidRequest, lat, lon)
	}
	if s.deps.Environment == nil {
		return nil, fmt.Errorf("environment provider %w", ErrNotConfigured)
	}
	env, err := s.deps.Environment.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if userID != "" && s.deps.Cache != nil {
		if err := s.deps.Cache.SetEnvironment(ctx, userID, env); err != nil {
			s.logger.Warn("Failed to cache environment", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return env, nil
}

// recordScore 保存评分并发布事件；事件发布失败只记录日志
func (s *HealthService) recordScore(ctx context.Context, userID string, kind models.ScoreKind, score int, level, explanation string, detail interface{}) error {
	scoredAt := s.now()

	if s.deps.Scores != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("failed to marshal %s score: %w", kind, err)
		}
		rec := &models.ScoreRecord{
			UserID:      userID,
			Kind:        kind,
			Score:       score,
			Level:       level,
			Explanation: explanation,
			Detail:      raw,
			ScoredAt:    scoredAt,
		}
		if err := s.deps.Scores.CreateScoreRecord(ctx, rec); err != nil {
			return err
		}
	}

	if s.deps.Events != nil {
		event := &models.ScoreEvent{
			EventID:  uuid.New().String(),
			UserID:   userID,
			Kind:     kind,
			Score:    score,
			Level:    level,
			ScoredAt: scoredAt,
		}
		if err := s.deps.Events.PublishScoreEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish score event",
				zap.String("user_id", userID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
	}
	return nil
}

// latestRisk 缓存优先，其次数据库；都没有时返回 nil
func (s *HealthService) latestRisk(ctx context.Context, userID string) *scoring.RiskScore {
	if s.deps.Cache != nil {
		score, err := s.deps.Cache.GetLatestRisk(ctx, userID)
		if err == nil {
			return score
		}
		if !errors.Is(err, consumer.ErrCacheMiss) {
			s.logger.Warn("Failed to read cached risk score", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if s.deps.Scores == nil {
		return nil
	}
	rec, err := s.deps.Scores.GetLatestScore(ctx, userID, models.ScoreKindRisk)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to load latest risk score", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	score := scoring.RiskScore{Score: rec.Score, Level: scoring.RiskLevel(rec.Level), Explanation: rec.Explanation}
	if len(rec.Detail) > 0 {
		if err := json.Unmarshal(rec.Detail, &score); err != nil {
			s.logger.Warn("Failed to decode risk score detail",
				zap.String("user_id", userID),
				zap.String("record_id", rec.RecordID),
				zap.Error(err),
			)
		}
	}
	return &score
}

func (s *HealthService) latestSleepScore(ctx context.Context, userID string) *int {
	if s.deps.Cache != nil {
		score, err := s.deps.Cache.GetLatestSleep(ctx, userID)
		if err == nil {
			return &score.Score
		}
		if !errors.Is(err, consumer.ErrCacheMiss) {
			s.logger.Warn("Failed to read cached sleep score", zap.String("user_id", userID), zap.Error(err))
		}
	}
	if s.deps.Scores == nil {
		return nil
	}
	rec, err := s.deps.Scores.GetLatestScore(ctx, userID, models.ScoreKindSleep)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to load latest sleep score", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return &rec.Score
}

func (s *HealthService) cachedEnvironment(ctx context.Context, userID string) *models.EnvironmentSnapshot {
	if s.deps.Cache == nil {
		return nil
	}
	env, err := s.deps.Cache.GetEnvironment(ctx, userID)
	if err != nil {
		if !errors.Is(err, consumer.ErrCacheMiss) {
			s.logger.Warn("Failed to read cached environment", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return env
}

func (s *HealthService) latestSymptomLog(ctx context.Context, userID string) *models.SymptomLog {
	if s.deps.Symptoms == nil {
		return nil
	}
	log, err := s.deps.Symptoms.GetLatestSymptomLog(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to load latest symptom log", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return log
}
