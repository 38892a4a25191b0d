// Package layout packs one day's events into side-by-side columns and computes the
// rectangle each event occupies on a vertical day grid.
package layout

import (
	"fmt"
	"sort"
	"strings"
)

type Mode int

const (
	// ModeGlobal divides the grid width by the column count of the whole day.
	ModeGlobal Mode = iota
	// ModeClustered packs each group of transitively overlapping events on its own,
	// so events outside any overlap keep the full width.
	ModeClustered
)

func (m Mode) String() string {
	switch m {
	case ModeClustered:
		return "clustered"
	default:
		return "global"
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "global":
		return ModeGlobal, nil
	case "clustered", "cluster":
		return ModeClustered, nil
	default:
		return ModeGlobal, fmt.Errorf("unknown layout mode %q", s)
	}
}

type Options struct {
	// DayStartHour is the hour at the top of the grid. Earlier events get a negative Top.
	DayStartHour  int
	PixelsPerHour float64
	Mode          Mode
}

func DefaultOptions() Options {
	return Options{DayStartHour: 7, PixelsPerHour: 80, Mode: ModeGlobal}
}

// Geometry is where an event renders: pixels vertically, percent of grid width horizontally.
type Geometry struct {
	Top    float64
	Height float64
	Left   float64
	Width  float64
}

type Placement struct {
	Event DayEvent
	// Index is the event's position in the slice given to Layout.
	Index   int
	Column  int
	Columns int
	Geometry
}

type Result struct {
	// Columns is the number of lanes used; in ModeClustered it is the widest cluster.
	Columns    int
	Placements []Placement
}

type indexed struct {
	event DayEvent
	index int
}

// Layout assigns every event a column and a geometry. The input slice is not modified.
// Placements come out column by column, each column in start order.
func Layout(events []DayEvent, opts Options) Result {
	if len(events) == 0 {
		return Result{Placements: []Placement{}}
	}

	sorted := make([]indexed, len(events))
	for i, e := range events {
		sorted[i] = indexed{event: e, index: i}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].event, sorted[j].event
		if a.Start() != b.Start() {
			return a.Start() < b.Start()
		}
		return a.DurationMinutes > b.DurationMinutes
	})

	groups := [][]indexed{sorted}
	if opts.Mode == ModeClustered {
		groups = clusters(sorted)
	}

	res := Result{Placements: make([]Placement, 0, len(events))}
	for _, group := range groups {
		columns := pack(group)
		if len(columns) > res.Columns {
			res.Columns = len(columns)
		}
		width := 100 / float64(len(columns))
		for c, col := range columns {
			for _, item := range col {
				res.Placements = append(res.Placements, Placement{
					Event:   item.event,
					Index:   item.index,
					Column:  c,
					Columns: len(columns),
					Geometry: Geometry{
						Top:    float64((item.event.StartHour-opts.DayStartHour)*60+item.event.StartMinute) / 60 * opts.PixelsPerHour,
						Height: float64(item.event.DurationMinutes) / 60 * opts.PixelsPerHour,
						Left:   float64(c) * width,
						Width:  width,
					},
				})
			}
		}
	}
	return res
}

// pack places each event, in order, into the first column whose last event has ended.
func pack(events []indexed) [][]indexed {
	var columns [][]indexed
	for _, item := range events {
		placed := false
		for c := range columns {
			last := columns[c][len(columns[c])-1].event
			if item.event.Start() >= last.End() {
				columns[c] = append(columns[c], item)
				placed = true
				break
			}
		}
		if !placed {
			columns = append(columns, []indexed{item})
		}
	}
	return columns
}

// clusters splits start-sorted events wherever the next start is at or after every end so far.
func clusters(sorted []indexed) [][]indexed {
	var out [][]indexed
	start, maxEnd := 0, 0
	for i, item := range sorted {
		if i > 0 && item.event.Start() >= maxEnd {
			out = append(out, sorted[start:i])
			start = i
		}
		if i == start || item.event.End() > maxEnd {
			maxEnd = item.event.End()
		}
	}
	return append(out, sorted[start:])
}
