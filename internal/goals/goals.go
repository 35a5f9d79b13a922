// Package goals 计算用户健康目标的进度
package goals

import (
	"fmt"
	"math"
	"time"

	"respiguard/internal/models"
)

// InhalerWindow 吸入器目标按最近 7 天统计
const InhalerWindow = 7 * 24 * time.Hour

// Describe 目标描述文本
func Describe(t models.GoalType, target int) (string, error) {
	switch t {
	case models.GoalInhalerUsage:
		return fmt.Sprintf("Target: Less than %d times per week", target), nil
	case models.GoalSleepScore:
		return fmt.Sprintf("Target: Score above %d", target), nil
	}
	return "", fmt.Errorf("invalid goal type: %q", t)
}

// InhalerUsageSince sums inhaler usage over logs at or after since.
func InhalerUsageSince(logs []*models.SymptomLog, since time.Time) int {
	total := 0
	for _, l := range logs {
		if l == nil || l.LoggedAt.Before(since) {
			continue
		}
		total += l.InhalerUsage
	}
	return total
}

// Progress 计算单个目标进度
// 吸入器：max(0, 100·(1 − 当前/目标))；睡眠：min(100, 当前/目标·100)
// sleepScore 为 nil 表示尚无睡眠评分
func Progress(goal *models.Goal, inhalerUsage int, sleepScore *int) models.GoalProgress {
	out := models.GoalProgress{Goal: *goal}

	switch goal.Type {
	case models.GoalInhalerUsage:
		out.Current = inhalerUsage
		out.ProgressText = fmt.Sprintf("%d/%d times used", inhalerUsage, goal.Target)
		out.OnTrack = inhalerUsage < goal.Target
		if goal.Target == 0 {
			// zero target: only zero usage counts as done
			if inhalerUsage == 0 {
				out.Progress = 100
				out.OnTrack = true
			}
			return out
		}
		p := 100 * (1 - float64(inhalerUsage)/float64(goal.Target))
		out.Progress = int(math.Round(math.Max(0, p)))

	case models.GoalSleepScore:
		if sleepScore == nil {
			out.ProgressText = fmt.Sprintf("no score/%d score", goal.Target)
			return out
		}
		out.Current = *sleepScore
		out.ProgressText = fmt.Sprintf("%d/%d score", *sleepScore, goal.Target)
		out.OnTrack = *sleepScore >= goal.Target
		if goal.Target == 0 {
			out.Progress = 100
			return out
		}
		p := float64(*sleepScore) / float64(goal.Target) * 100
		out.Progress = int(math.Round(math.Min(100, p)))

	default:
		out.ProgressText = "N/A"
	}
	return out
}
