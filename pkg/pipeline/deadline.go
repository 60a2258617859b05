package pipeline

import (
	"time"

	"github.com/Ramsey-B/dahlia/pkg/models"
)

const dueSoonWindow = 3 * 24 * time.Hour

// IsOverdue reports whether a set deadline has passed. A deadline equal to now
// is not overdue. Always derived, never stored.
func IsOverdue(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return false
	}
	return deadline.Before(now)
}

// OverdueDays returns how many days past the deadline now is, rounded up so
// any overdue record reports at least one day. Zero when not overdue.
func OverdueDays(deadline *time.Time, now time.Time) int {
	if !IsOverdue(deadline, now) {
		return 0
	}
	days := int(now.Sub(*deadline) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

// DeadlineBucketFor classifies a deadline for display grouping.
func DeadlineBucketFor(deadline *time.Time, now time.Time) models.DeadlineBucket {
	if deadline == nil {
		return models.BucketNone
	}
	if deadline.Before(now) {
		return models.BucketOverdue
	}
	if sameDay(*deadline, now) {
		return models.BucketDueToday
	}
	if deadline.Sub(now) <= dueSoonWindow {
		return models.BucketDueSoon
	}
	return models.BucketDueLater
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
