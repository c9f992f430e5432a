package scheduler

import (
	"fmt"
	"math"
	"sort"

	"github.com/benvon/smart-schedule/internal/models"
)

// AssignSlots orders one day's slices and lays them out back to back from dayStartHour.
// Heavier priority×importance goes first, then longer slices; remaining ties keep commit order.
func AssignSlots(slices []models.ScheduledSlice, dayStartHour float64) []models.ScheduledSlot {
	ordered := make([]models.ScheduledSlice, len(slices))
	copy(ordered, slices)

	sort.SliceStable(ordered, func(a, b int) bool {
		wa := models.Weight(ordered[a].Priority, ordered[a].Importance)
		wb := models.Weight(ordered[b].Priority, ordered[b].Importance)
		if wa != wb {
			return wa > wb
		}
		return ordered[a].Hours > ordered[b].Hours
	})

	slots := make([]models.ScheduledSlot, 0, len(ordered))
	cursor := dayStartHour
	for _, s := range ordered {
		end := cursor + s.Hours
		slots = append(slots, models.ScheduledSlot{
			ScheduledSlice: s,
			StartTime:      FormatClock(cursor),
			EndTime:        FormatClock(end),
		})
		cursor = end
	}
	return slots
}

// FormatClock renders fractional hours since midnight as HH:MM, rounded to the minute.
// Hours past 24 are not wrapped.
func FormatClock(hours float64) string {
	minutes := int(math.Round(hours * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
