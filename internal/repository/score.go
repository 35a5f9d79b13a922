package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"respiguard/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

// ScoreRepository 风险/睡眠评分历史仓库
type ScoreRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewScoreRepository(db *sql.DB, logger *zap.Logger) *ScoreRepository {
	return &ScoreRepository{db: db, logger: logger}
}

// CreateScoreRecord 保存一次评分结果
func (r *ScoreRepository) CreateScoreRecord(ctx context.Context, rec *models.ScoreRecord) error {
	if rec == nil {
		return fmt.Errorf("score record is required")
	}
	if rec.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if !rec.Kind.Valid() {
		return fmt.Errorf("invalid score kind: %q", rec.Kind)
	}
	if rec.RecordID == "" {
		rec.RecordID = uuid.New().String()
	}
	if rec.ScoredAt.IsZero() {
		rec.ScoredAt = time.Now().UTC()
	}

	var detail interface{}
	if len(rec.Detail) > 0 {
		detail = []byte(rec.Detail)
	}

	query := `
		INSERT INTO score_records (record_id, user_id, kind, score, level, explanation, detail, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.RecordID, rec.UserID, string(rec.Kind), rec.Score, nullString(rec.Level), rec.Explanation, detail, rec.ScoredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create score record: %w", err)
	}

	r.logger.Debug("Score record saved",
		zap.String("record_id", rec.RecordID),
		zap.String("user_id", rec.UserID),
		zap.String("kind", string(rec.Kind)),
		zap.Int("score", rec.Score),
	)
	return nil
}

// ListScoreHistory 评分历史（最新在前）
// kind 为空时返回全部类别；limit <= 0 使用默认值
func (r *ScoreRepository) ListScoreHistory(ctx context.Context, userID string, kind models.ScoreKind, limit int) ([]*models.ScoreRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("invalid score kind: %q", kind)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	query := `
		SELECT record_id, user_id, kind, score, level, explanation, detail, scored_at
		FROM score_records
		WHERE user_id = $1
		  AND ($2 = '' OR kind = $2)
		ORDER BY scored_at DESC
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var records []*models.ScoreRecord
	for rows.Next() {
		rec, err := scanScoreRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate score history: %w", err)
	}
	return records, nil
}

// GetLatestScore 某类别最近一次评分
func (r *ScoreRepository) GetLatestScore(ctx context.Context, userID string, kind models.ScoreKind) (*models.ScoreRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid score kind: %q", kind)
	}

	query := `
		SELECT record_id, user_id, kind, score, level, explanation, detail, scored_at
		FROM score_records
		WHERE user_id = $1
		  AND kind = $2
		ORDER BY scored_at DESC
		LIMIT 1
	`
	rec, err := scanScoreRecord(r.db.QueryRowContext(ctx, query, userID, string(kind)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s score %w: user_id=%s", kind, ErrNotFound, userID)
		}
		return nil, err
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScoreRecord(row rowScanner) (*models.ScoreRecord, error) {
	var rec models.ScoreRecord
	var kind string
	var level sql.NullString
	var detail []byte
	err := row.Scan(&rec.RecordID, &rec.UserID, &kind, &rec.Score, &level, &rec.Explanation, &detail, &rec.ScoredAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan score record: %w", err)
	}
	rec.Kind = models.ScoreKind(kind)
	rec.Level = level.String
	if len(detail) > 0 {
		rec.Detail = append(rec.Detail[:0], detail...)
	}
	return &rec, nil
}
