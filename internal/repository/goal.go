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

// GoalRepository 健康目标仓库
type GoalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewGoalRepository(db *sql.DB, logger *zap.Logger) *GoalRepository {
	return &GoalRepository{db: db, logger: logger}
}

func (r *GoalRepository) CreateGoal(ctx context.Context, goal *models.Goal) error {
	if goal == nil {
		return fmt.Errorf("goal is required")
	}
	if goal.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if !goal.Type.Valid() {
		return fmt.Errorf("invalid goal type: %q", goal.Type)
	}
	if goal.Target < 0 {
		return fmt.Errorf("goal target must be >= 0, got %d", goal.Target)
	}
	if goal.GoalID == "" {
		goal.GoalID = uuid.New().String()
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO goals (goal_id, user_id, goal_type, target, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		goal.GoalID, goal.UserID, string(goal.Type), goal.Target, goal.Description, goal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// ListGoals 用户全部目标（按创建时间）
func (r *GoalRepository) ListGoals(ctx context.Context, userID string) ([]*models.Goal, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT goal_id, user_id, goal_type, target, description, created_at
		FROM goals
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []*models.Goal
	for rows.Next() {
		var g models.Goal
		var goalType string
		if err := rows.Scan(&g.GoalID, &g.UserID, &goalType, &g.Target, &g.Description, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.Type = models.GoalType(goalType)
		goals = append(goals, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}
