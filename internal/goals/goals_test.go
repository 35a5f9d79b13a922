package goals

import (
	"testing"
	"time"

	"respiguard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDescribe(t *testing.T) {
	d, err := Describe(models.GoalInhalerUsage, 3)
	require.NoError(t, err)
	assert.Equal(t, "Target: Less than 3 times per week", d)

	d, err = Describe(models.GoalSleepScore, 80)
	require.NoError(t, err)
	assert.Equal(t, "Target: Score above 80", d)

	_, err = Describe("steps", 1)
	assert.Error(t, err)
}

func TestInhalerUsageSince(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	logs := []*models.SymptomLog{
		{InhalerUsage: 2, LoggedAt: now.Add(-time.Hour)},
		{InhalerUsage: 1, LoggedAt: now.Add(-6 * 24 * time.Hour)},
		{InhalerUsage: 5, LoggedAt: now.Add(-8 * 24 * time.Hour)},
		nil,
	}
	assert.Equal(t, 3, InhalerUsageSince(logs, now.Add(-InhalerWindow)))
	assert.Equal(t, 0, InhalerUsageSince(nil, now))
}

func TestProgress_Inhaler(t *testing.T) {
	goal := &models.Goal{Type: models.GoalInhalerUsage, Target: 5}

	p := Progress(goal, 2, nil)
	assert.Equal(t, 60, p.Progress)
	assert.Equal(t, 2, p.Current)
	assert.Equal(t, "2/5 times used", p.ProgressText)
	assert.True(t, p.OnTrack)

	p = Progress(goal, 7, nil)
	assert.Equal(t, 0, p.Progress)
	assert.False(t, p.OnTrack)

	p = Progress(goal, 0, nil)
	assert.Equal(t, 100, p.Progress)
}

func TestProgress_InhalerZeroTarget(t *testing.T) {
	goal := &models.Goal{Type: models.GoalInhalerUsage, Target: 0}
	assert.Equal(t, 100, Progress(goal, 0, nil).Progress)
	assert.Equal(t, 0, Progress(goal, 1, nil).Progress)
}

func TestProgress_Sleep(t *testing.T) {
	goal := &models.Goal{Type: models.GoalSleepScore, Target: 80}

	p := Progress(goal, 0, intPtr(60))
	assert.Equal(t, 75, p.Progress)
	assert.Equal(t, "60/80 score", p.ProgressText)
	assert.False(t, p.OnTrack)

	p = Progress(goal, 0, intPtr(95))
	assert.Equal(t, 100, p.Progress)
	assert.True(t, p.OnTrack)

	p = Progress(goal, 0, nil)
	assert.Equal(t, 0, p.Progress)
	assert.False(t, p.OnTrack)

	assert.Equal(t, 100, Progress(&models.Goal{Type: models.GoalSleepScore}, 0, intPtr(0)).Progress)
}
