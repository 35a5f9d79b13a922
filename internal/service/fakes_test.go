package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"respiguard/internal/config"
	"respiguard/internal/consumer"
	"respiguard/internal/models"
	"respiguard/internal/repository"
	"respiguard/internal/scoring"
)

type memSymptoms struct {
	mu   sync.Mutex
	logs []*models.SymptomLog
}

func (m *memSymptoms) CreateSymptomLog(ctx context.Context, log *models.SymptomLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("log-%d", len(m.logs)+1)
	}
	if log.LoggedAt.IsZero() {
		log.LoggedAt = time.Now().UTC()
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *memSymptoms) ListSymptomLogsSince(ctx context.Context, userID string, since time.Time) ([]*models.SymptomLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.SymptomLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if l.UserID == userID && !l.LoggedAt.Before(since) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memSymptoms) GetLatestSymptomLog(ctx context.Context, userID string) (*models.SymptomLog, error) {
	logs, _ := m.ListSymptomLogsSince(ctx, userID, time.Time{})
	if len(logs) == 0 {
		return nil, fmt.Errorf("symptom log %w", repository.ErrNotFound)
	}
	return logs[0], nil
}

type memScores struct {
	mu      sync.Mutex
	records []*models.ScoreRecord
	err     error
}

func (m *memScores) CreateScoreRecord(ctx context.Context, rec *models.ScoreRecord) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.RecordID = fmt.Sprintf("rec-%d", len(m.records)+1)
	m.records = append(m.records, rec)
	return nil
}

func (m *memScores) ListScoreHistory(ctx context.Context, userID string, kind models.ScoreKind, limit int) ([]*models.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ScoreRecord
	for _, r := range m.records {
		if r.UserID == userID && (kind == "" || r.Kind == kind) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScoredAt.After(out[j].ScoredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memScores) GetLatestScore(ctx context.Context, userID string, kind models.ScoreKind) (*models.ScoreRecord, error) {
	recs, _ := m.ListScoreHistory(ctx, userID, kind, 1)
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s score %w", kind, repository.ErrNotFound)
	}
	return recs[0], nil
}

type memGoals struct {
	goals []*models.Goal
}

func (m *memGoals) CreateGoal(ctx context.Context, goal *models.Goal) error {
	goal.GoalID = fmt.Sprintf("goal-%d", len(m.goals)+1)
	m.goals = append(m.goals, goal)
	return nil
}

func (m *memGoals) ListGoals(ctx context.Context, userID string) ([]*models.Goal, error) {
	var out []*models.Goal
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

type memCache struct {
	risk  map[string]*scoring.RiskScore
	sleep map[string]*scoring.SleepScore
	env   map[string]*models.EnvironmentSnapshot
}

func newMemCache() *memCache {
	return &memCache{
		risk:  map[string]*scoring.RiskScore{},
		sleep: map[string]*scoring.SleepScore{},
		env:   map[string]*models.EnvironmentSnapshot{},
	}
}

func (m *memCache) SetLatestRisk(ctx context.Context, userID string, s *scoring.RiskScore) error {
	m.risk[userID] = s
	return nil
}

func (m *memCache) GetLatestRisk(ctx context.Context, userID string) (*scoring.RiskScore, error) {
	if s, ok := m.risk[userID]; ok {
		return s, nil
	}
	return nil, consumer.ErrCacheMiss
}

func (m *memCache) SetLatestSleep(ctx context.Context, userID string, s *scoring.SleepScore) error {
	m.sleep[userID] = s
	return nil
}

func (m *memCache) GetLatestSleep(ctx context.Context, userID string) (*scoring.SleepScore, error) {
	if s, ok := m.sleep[userID]; ok {
		return s, nil
	}
	return nil, consumer.ErrCacheMiss
}

func (m *memCache) SetEnvironment(ctx context.Context, userID string, e *models.EnvironmentSnapshot) error {
	m.env[userID] = e
	return nil
}

func (m *memCache) GetEnvironment(ctx context.Context, userID string) (*models.EnvironmentSnapshot, error) {
	if e, ok := m.env[userID]; ok {
		return e, nil
	}
	return nil, consumer.ErrCacheMiss
}

type fakeEvents struct {
	events []*models.ScoreEvent
	err    error
}

func (f *fakeEvents) PublishScoreEvent(ctx context.Context, e *models.ScoreEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type fakeEnvironment struct {
	snap *models.EnvironmentSnapshot
}

func (f *fakeEnvironment) Current(ctx context.Context, lat, lon float64) (*models.EnvironmentSnapshot, error) {
	if f.snap == nil {
		return nil, errors.New("provider down")
	}
	return f.snap, nil
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeAlerts struct {
	sent []published
}

func (f *fakeAlerts) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.sent = append(f.sent, published{topic: topic, qos: qos, payload: payload})
	return nil
}

type fixture struct {
	symptoms *memSymptoms
	scores   *memScores
	goals    *memGoals
	cache    *memCache
	events   *fakeEvents
	gen      *fakeGenerator
	env      *fakeEnvironment
	alerts   *fakeAlerts
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scoring.DefaultScheme = "detailed"
	cfg.Topics.Alerts = "respiguard/alerts"
	cfg.MQTT.QoS = 1
	return cfg
}

func newFixture() *fixture {
	return &fixture{
		symptoms: &memSymptoms{},
		scores:   &memScores{},
		goals:    &memGoals{},
		cache:    newMemCache(),
		events:   &fakeEvents{},
		gen:      &fakeGenerator{reply: "ok"},
		env:      &fakeEnvironment{},
		alerts:   &fakeAlerts{},
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		Symptoms:    f.symptoms,
		Scores:      f.scores,
		Goals:       f.goals,
		Cache:       f.cache,
		Events:      f.events,
		Environment: f.env,
		Assistant:   f.gen,
		Alerts:      f.alerts,
	}
}
