package scheduler

import (
	"github.com/benvon/smart-schedule/internal/models"
)

const (
	// OverdueDeadlineScore is the deadline score of any task already past due
	OverdueDeadlineScore = 10
	// deadlineHorizonDays is how far out a deadline starts to add urgency
	deadlineHorizonDays = 10
	// minDeadlineScore floors the deadline score for far-off deadlines
	minDeadlineScore = 1
)

// DeadlineScore rises from 1 to 10 as the deadline approaches.
// Overdue tasks (negative days) score the maximum.
func DeadlineScore(daysUntilDue int) int {
	if daysUntilDue < 0 {
		return OverdueDeadlineScore
	}
	return max(minDeadlineScore, deadlineHorizonDays-daysUntilDue)
}

// UrgencyScore combines priority, importance and deadline proximity; higher is more urgent
func UrgencyScore(p models.Priority, i models.Importance, daysUntilDue int) int {
	return p.Score() * i.Score() * DeadlineScore(daysUntilDue)
}
