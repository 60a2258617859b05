package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/dahlia/pkg/models"
)

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)
	exactlyNow := now

	tests := []struct {
		name     string
		deadline *time.Time
		want     bool
	}{
		{"nil deadline", nil, false},
		{"deadline in the past", &yesterday, true},
		{"deadline in the future", &tomorrow, false},
		{"deadline exactly now", &exactlyNow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOverdue(tt.deadline, now))
		})
	}
}

func TestOverdueDays(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	twoHoursAgo := now.Add(-2 * time.Hour)
	fiveDaysAgo := now.Add(-5 * 24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	assert.Equal(t, 0, OverdueDays(nil, now))
	assert.Equal(t, 0, OverdueDays(&tomorrow, now))
	assert.Equal(t, 1, OverdueDays(&twoHoursAgo, now))
	assert.Equal(t, 5, OverdueDays(&fiveDaysAgo, now))
}

func TestDeadlineBucketFor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	laterToday := now.Add(3 * time.Hour)
	inTwoDays := now.Add(2 * 24 * time.Hour)
	nextWeek := now.Add(7 * 24 * time.Hour)

	tests := []struct {
		name     string
		deadline *time.Time
		want     models.DeadlineBucket
	}{
		{"unset", nil, models.BucketNone},
		{"past", &yesterday, models.BucketOverdue},
		{"later today", &laterToday, models.BucketDueToday},
		{"within three days", &inTwoDays, models.BucketDueSoon},
		{"further out", &nextWeek, models.BucketDueLater},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeadlineBucketFor(tt.deadline, now))
		})
	}
}
