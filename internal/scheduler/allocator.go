package scheduler

import (
	"fmt"

	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/models"
	"go.uber.org/zap"
)

// dailyAllocator places one task at a time against the aggregator's committed state
type dailyAllocator struct {
	settings Settings
	log      *zap.Logger
}

// allocate tries to place task between start and its deadline.
// It returns nil when the task was committed in full, otherwise the entry explaining why not.
func (d *dailyAllocator) allocate(agg *Aggregator, pt plannedTask, start models.Date) (*models.UnscheduledEntry, error) {
	task := pt.task
	daysUntilDeadline := start.DaysUntil(pt.deadline)

	// Too big for one day and not yet pressing: defer instead of spreading it out
	if task.Hours > d.settings.DailyCapacity && daysUntilDeadline > d.settings.OversizeDeadlineDays {
		d.log.Debug("task_deferred_oversize",
			zap.Int("task_index", pt.index),
			zap.String("task_name", logger.SanitizeTaskName(task.Name)),
			zap.Float64("hours", task.Hours),
			zap.Int("days_until_deadline", daysUntilDeadline),
		)
		return &models.UnscheduledEntry{
			Task:              task,
			DaysUntilDeadline: daysUntilDeadline,
			ExceedsTimeLimit:  true,
		}, nil
	}

	daysSpan := max(1, daysUntilDeadline+1)
	remaining := task.Hours
	dailyTarget := min(remaining/float64(daysSpan), d.settings.DailyCapacity)

	// No day can take a slice this thin, so skip the walk to a possibly distant deadline
	if remaining > hoursEpsilon && dailyTarget < d.settings.MinSliceHours {
		return d.unscheduled(pt, daysUntilDeadline, remaining, false), nil
	}

	// Overdue tasks still get the start date
	last := pt.deadline
	if last.Before(start) {
		last = start
	}

	alloc := newAllocation()
	for day := start; remaining > hoursEpsilon && !day.After(last); day = day.AddDays(1) {
		available := agg.Remaining(day) - alloc.hours(day)
		if available <= 0 {
			continue
		}

		hours := min(dailyTarget, available, remaining)
		if hours < d.settings.MinSliceHours {
			continue
		}

		alloc.add(day, models.ScheduledSlice{
			TaskID:            task.ID,
			Name:              task.Name,
			Hours:             hours,
			Priority:          task.Priority,
			Importance:        task.Importance,
			Deadline:          task.Deadline,
			DaysUntilDeadline: day.DaysUntil(pt.deadline),
		})
		remaining -= hours
	}

	if remaining > hoursEpsilon {
		return d.unscheduled(pt, daysUntilDeadline, remaining, !alloc.empty()), nil
	}

	if err := agg.merge(alloc); err != nil {
		return nil, fmt.Errorf("commit task %d: %w", pt.index, err)
	}
	d.log.Debug("task_committed",
		zap.Int("task_index", pt.index),
		zap.String("task_name", logger.SanitizeTaskName(task.Name)),
		zap.Int("slices", len(alloc.entries)),
	)
	return nil, nil
}

func (d *dailyAllocator) unscheduled(pt plannedTask, daysUntilDeadline int, remaining float64, partially bool) *models.UnscheduledEntry {
	d.log.Debug("task_unscheduled",
		zap.Int("task_index", pt.index),
		zap.String("task_name", logger.SanitizeTaskName(pt.task.Name)),
		zap.Float64("remaining_hours", remaining),
		zap.Bool("partially_scheduled", partially),
	)
	return &models.UnscheduledEntry{
		Task:               pt.task,
		DaysUntilDeadline:  daysUntilDeadline,
		PartiallyScheduled: &partially,
		RemainingTime:      &remaining,
	}
}
