package scheduler

import (
	"sort"

	"github.com/benvon/smart-schedule/internal/models"
)

// plannedTask is a validated task with its parsed deadline and input position
type plannedTask struct {
	task     models.Task
	deadline models.Date
	index    int
	urgency  int
}

// sequence returns the tasks ordered by descending urgency as of ref.
// Ties keep their input order so identical inputs always produce identical runs.
func sequence(tasks []plannedTask, ref models.Date) []plannedTask {
	ordered := make([]plannedTask, len(tasks))
	copy(ordered, tasks)

	for i := range ordered {
		ordered[i].urgency = UrgencyScore(
			ordered[i].task.Priority,
			ordered[i].task.Importance,
			ref.DaysUntil(ordered[i].deadline),
		)
	}

	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].urgency > ordered[b].urgency
	})
	return ordered
}
