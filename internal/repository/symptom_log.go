package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"respiguard/internal/models"
	"respiguard/internal/scoring"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// SymptomLogRepository 症状记录仓库
type SymptomLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSymptomLogRepository(db *sql.DB, logger *zap.Logger) *SymptomLogRepository {
	return &SymptomLogRepository{db: db, logger: logger}
}

// CreateSymptomLog 写入一条症状记录；LogID/LoggedAt 为空时自动生成
func (r *SymptomLogRepository) CreateSymptomLog(ctx context.Context, log *models.SymptomLog) error {
	if log == nil {
		return fmt.Errorf("symptom log is required")
	}
	if log.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if log.LogID == "" {
		log.LogID = uuid.New().String()
	}
	if log.LoggedAt.IsZero() {
		log.LoggedAt = time.Now().UTC()
	}

	triggers := log.Triggers
	if triggers == nil {
		triggers = []string{}
	}

	query := `
		INSERT INTO symptom_logs (log_id, user_id, phlegm_color, inhaler_usage, triggers, notes, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.LogID, log.UserID, string(log.PhlegmColor), log.InhalerUsage, pq.Array(triggers), nullString(log.Notes), log.LoggedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create symptom log: %w", err)
	}
	return nil
}

// ListSymptomLogsSince 查询某时间点之后的症状记录（最新在前）
func (r *SymptomLogRepository) ListSymptomLogsSince(ctx context.Context, userID string, since time.Time) ([]*models.SymptomLog, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT log_id, user_id, phlegm_color, inhaler_usage, triggers, notes, logged_at
		FROM symptom_logs
		WHERE user_id = $1
		  AND logged_at >= $2
		ORDER BY logged_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query symptom logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.SymptomLog
	for rows.Next() {
		var l models.SymptomLog
		var color string
		var notes sql.NullString
		if err := rows.Scan(&l.LogID, &l.UserID, &color, &l.InhalerUsage, pq.Array(&l.Triggers), &notes, &l.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan symptom log: %w", err)
		}
		l.PhlegmColor = scoring.PhlegmColor(color)
		l.Notes = notes.String
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symptom logs: %w", err)
	}
	return logs, nil
}

// GetLatestSymptomLog 最近一条症状记录
func (r *SymptomLogRepository) GetLatestSymptomLog(ctx context.Context, userID string) (*models.SymptomLog, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT log_id, user_id, phlegm_color, inhaler_usage, triggers, notes, logged_at
		FROM symptom_logs
		WHERE user_id = $1
		ORDER BY logged_at DESC
		LIMIT 1
	`
	var l models.SymptomLog
	var color string
	var notes sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&l.LogID, &l.UserID, &color, &l.InhalerUsage, pq.Array(&l.Triggers), &notes, &l.LoggedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("symptom log %w: user_id=%s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get latest symptom log: %w", err)
	}
	l.PhlegmColor = scoring.PhlegmColor(color)
	l.Notes = notes.String
	return &l, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
