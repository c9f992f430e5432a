package scheduler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/benvon/smart-schedule/internal/models"
)

// hoursEpsilon absorbs floating point dust when comparing hour totals
const hoursEpsilon = 1e-9

// ErrCapacityExceeded is returned when a merge would overfill a day
var ErrCapacityExceeded = errors.New("daily capacity exceeded")

// daySlice is one tentative or committed slice together with its day
type daySlice struct {
	day   models.Date
	slice models.ScheduledSlice
}

// allocation is a task's private tentative placement, invisible to other tasks until merged
type allocation struct {
	entries []daySlice
	byDay   map[models.Date]float64
}

func newAllocation() *allocation {
	return &allocation{byDay: make(map[models.Date]float64)}
}

func (a *allocation) add(day models.Date, slice models.ScheduledSlice) {
	a.entries = append(a.entries, daySlice{day: day, slice: slice})
	a.byDay[day] += slice.Hours
}

// hours returns the tentative hours on day
func (a *allocation) hours(day models.Date) float64 {
	return a.byDay[day]
}

func (a *allocation) empty() bool {
	return len(a.entries) == 0
}

// Aggregator holds the committed slices of a run, keyed by day
type Aggregator struct {
	capacity  float64
	committed map[models.Date][]models.ScheduledSlice
	totals    map[models.Date]float64
}

// NewAggregator creates an empty aggregator for the given daily capacity
func NewAggregator(capacity float64) *Aggregator {
	return &Aggregator{
		capacity:  capacity,
		committed: make(map[models.Date][]models.ScheduledSlice),
		totals:    make(map[models.Date]float64),
	}
}

// Committed returns the hours already committed on day
func (g *Aggregator) Committed(day models.Date) float64 {
	return g.totals[day]
}

// Remaining returns the uncommitted capacity on day
func (g *Aggregator) Remaining(day models.Date) float64 {
	return g.capacity - g.totals[day]
}

// merge commits every slice of alloc or, if any day would overflow, none of them
func (g *Aggregator) merge(alloc *allocation) error {
	for day, hours := range alloc.byDay {
		if g.totals[day]+hours > g.capacity+hoursEpsilon {
			return fmt.Errorf("%w on %s: %.2f committed + %.2f requested > %.2f",
				ErrCapacityExceeded, day, g.totals[day], hours, g.capacity)
		}
	}

	for _, e := range alloc.entries {
		g.committed[e.day] = append(g.committed[e.day], e.slice)
		g.totals[e.day] += e.slice.Hours
	}
	return nil
}

// Days returns the days with committed slices in ascending order
func (g *Aggregator) Days() []models.Date {
	days := make([]models.Date, 0, len(g.committed))
	for d := range g.committed {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Slices returns a copy of the slices committed on day, in commit order
func (g *Aggregator) Slices(day models.Date) []models.ScheduledSlice {
	src := g.committed[day]
	out := make([]models.ScheduledSlice, len(src))
	copy(out, src)
	return out
}
