package layout

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const minutesPerDay = 24 * 60

// ErrInvalidEvent is wrapped by every constructor rejection.
var ErrInvalidEvent = errors.New("invalid day event")

// DayEvent is an appointment reduced to a start time and a duration on a single day.
// Times are naive wall-clock values.
type DayEvent struct {
	ID              string
	StartHour       int
	StartMinute     int
	DurationMinutes int
}

// Start is the event start in minutes since midnight.
func (e DayEvent) Start() int {
	return e.StartHour*60 + e.StartMinute
}

// End is the exclusive end in minutes since midnight.
func (e DayEvent) End() int {
	return e.Start() + e.DurationMinutes
}

// EndClock returns the end as hour and minute, for display.
func (e DayEvent) EndClock() (int, int) {
	end := e.End()
	return end / 60, end % 60
}

// Overlaps reports whether the half-open ranges intersect. Touching events do not overlap.
func (e DayEvent) Overlaps(o DayEvent) bool {
	return e.Start() < o.End() && o.Start() < e.End()
}

// NewDayEvent validates the fields so a malformed event never reaches Layout.
func NewDayEvent(id string, hour, minute, durationMinutes int) (DayEvent, error) {
	if hour < 0 || hour > 23 {
		return DayEvent{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidEvent, hour)
	}
	if minute < 0 || minute > 59 {
		return DayEvent{}, fmt.Errorf("%w: minute %d out of range", ErrInvalidEvent, minute)
	}
	if durationMinutes <= 0 {
		return DayEvent{}, fmt.Errorf("%w: duration must be positive (got %d)", ErrInvalidEvent, durationMinutes)
	}
	e := DayEvent{ID: id, StartHour: hour, StartMinute: minute, DurationMinutes: durationMinutes}
	if e.End() > minutesPerDay {
		return DayEvent{}, fmt.Errorf("%w: ends after midnight", ErrInvalidEvent)
	}
	return e, nil
}

// EventAt builds an event from an "HH:mm" clock string.
func EventAt(id, clock string, durationMinutes int) (DayEvent, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return DayEvent{}, fmt.Errorf("%w: bad start time %q", ErrInvalidEvent, clock)
	}
	return NewDayEvent(id, t.Hour(), t.Minute(), durationMinutes)
}

// MaxConcurrent returns the largest number of events in progress at any single instant.
func MaxConcurrent(events []DayEvent) int {
	type edge struct {
		at    int
		delta int
	}
	edges := make([]edge, 0, 2*len(events))
	for _, e := range events {
		if e.DurationMinutes <= 0 {
			continue
		}
		edges = append(edges, edge{e.Start(), 1}, edge{e.End(), -1})
	}
	// Ends sort before starts at the same minute so touching events are not counted together.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at != edges[j].at {
			return edges[i].at < edges[j].at
		}
		return edges[i].delta < edges[j].delta
	})

	cur, max := 0, 0
	for _, ed := range edges {
		cur += ed.delta
		if cur > max {
			max = cur
		}
	}
	return max
}
