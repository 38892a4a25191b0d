// Package calendar turns a day of appointments into positioned boxes for the calendar page.
package calendar

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/layout"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Lister is satisfied by every storage.Store and by the remote client.
type Lister interface {
	List(ctx context.Context, f storage.Filter) ([]model.Appointment, error)
}

type Config struct {
	Layout     layout.Options
	DayEndHour int
}

type Query struct {
	Mode             layout.Mode
	IncludeCancelled bool
}

type HourMark struct {
	Hour  int     `json:"hour"`
	Label string  `json:"label"`
	Top   float64 `json:"top"`
}

type Event struct {
	ID          string       `json:"id"`
	PatientName string       `json:"patientName"`
	DoctorName  string       `json:"doctorName"`
	Time        string       `json:"time"`
	EndHour     int          `json:"endHour"`
	EndMinute   int          `json:"endMinute"`
	Duration    int          `json:"duration"`
	Status      model.Status `json:"status"`
	Mode        model.Mode   `json:"mode"`
	Color       string       `json:"color"`
	Column      int          `json:"column"`
	Columns     int          `json:"columns"`
	Top         float64      `json:"top"`
	Height      float64      `json:"height"`
	Left        float64      `json:"left"`
	Width       float64      `json:"width"`
}

type Skipped struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type DayView struct {
	Date          string     `json:"date"`
	LayoutMode    string     `json:"layoutMode"`
	DayStartHour  int        `json:"dayStartHour"`
	DayEndHour    int        `json:"dayEndHour"`
	PixelsPerHour float64    `json:"pixelsPerHour"`
	Height        float64    `json:"height"`
	Columns       int        `json:"columns"`
	MaxConcurrent int        `json:"maxConcurrent"`
	Hours         []HourMark `json:"hours"`
	Events        []Event    `json:"events"`
	Hidden        int        `json:"hidden"`
	Skipped       []Skipped  `json:"skipped"`
}

type Builder struct {
	lister Lister
	cfg    Config
}

const defaultDayEndHour = 18

// NewBuilder fills in a missing scale and keeps the grid inside one day with at least one
// hour row. An end hour at or before the start falls back to 18, or midnight for late starts.
func NewBuilder(lister Lister, cfg Config) *Builder {
	if cfg.Layout.PixelsPerHour <= 0 {
		cfg.Layout.PixelsPerHour = layout.DefaultOptions().PixelsPerHour
	}
	cfg.Layout.DayStartHour = min(max(cfg.Layout.DayStartHour, 0), 23)
	cfg.DayEndHour = min(cfg.DayEndHour, 24)
	if cfg.DayEndHour <= cfg.Layout.DayStartHour {
		cfg.DayEndHour = defaultDayEndHour
		if cfg.DayEndHour <= cfg.Layout.DayStartHour {
			cfg.DayEndHour = 24
		}
	}
	return &Builder{lister: lister, cfg: cfg}
}

// Build lays out every appointment on date. Cancelled appointments take part in the
// layout either way; they are left out of Events unless q.IncludeCancelled is set.
func (b *Builder) Build(ctx context.Context, date string, q Query) (DayView, error) {
	ctx, span := otel.Tracer("calendar").Start(ctx, "calendar.day_view",
		trace.WithAttributes(
			attribute.String("calendar.date", date),
			attribute.String("calendar.layout_mode", q.Mode.String()),
		),
	)
	defer span.End()

	if _, err := model.ParseDate(date); err != nil {
		return DayView{}, err
	}
	appts, err := b.lister.List(ctx, storage.Filter{Date: date})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list appointments")
		return DayView{}, fmt.Errorf("list appointments: %w", err)
	}

	opts := b.cfg.Layout
	opts.Mode = q.Mode

	view := DayView{
		Date:          date,
		LayoutMode:    q.Mode.String(),
		DayStartHour:  opts.DayStartHour,
		DayEndHour:    b.cfg.DayEndHour,
		PixelsPerHour: opts.PixelsPerHour,
		Height:        float64(b.cfg.DayEndHour-opts.DayStartHour) * opts.PixelsPerHour,
		Hours:         hourMarks(opts.DayStartHour, b.cfg.DayEndHour, opts.PixelsPerHour),
		Events:        []Event{},
		Skipped:       []Skipped{},
	}

	events := make([]layout.DayEvent, 0, len(appts))
	sources := make([]model.Appointment, 0, len(appts))
	for _, a := range appts {
		e, err := layout.EventAt(a.ID, a.Time, a.DurationMinutes)
		if err != nil {
			view.Skipped = append(view.Skipped, Skipped{ID: a.ID, Reason: err.Error()})
			continue
		}
		events = append(events, e)
		sources = append(sources, a)
	}

	res := layout.Layout(events, opts)
	view.Columns = res.Columns
	view.MaxConcurrent = layout.MaxConcurrent(events)

	for _, p := range res.Placements {
		a := sources[p.Index]
		if a.Status == model.StatusCancelled && !q.IncludeCancelled {
			view.Hidden++
			continue
		}
		endHour, endMinute := p.Event.EndClock()
		view.Events = append(view.Events, Event{
			ID:          a.ID,
			PatientName: a.PatientName,
			DoctorName:  a.DoctorName,
			Time:        a.Time,
			EndHour:     endHour,
			EndMinute:   endMinute,
			Duration:    a.DurationMinutes,
			Status:      a.Status,
			Mode:        a.Mode,
			Color:       DoctorColor(a.DoctorName),
			Column:      p.Column,
			Columns:     p.Columns,
			Top:         p.Top,
			Height:      p.Height,
			Left:        p.Left,
			Width:       p.Width,
		})
	}

	span.SetAttributes(
		attribute.Int("calendar.events", len(view.Events)),
		attribute.Int("calendar.columns", view.Columns),
		attribute.Int("calendar.skipped", len(view.Skipped)),
	)
	return view, nil
}

func hourMarks(start, end int, pph float64) []HourMark {
	marks := make([]HourMark, 0, max(end-start, 0))
	for h := start; h < end; h++ {
		marks = append(marks, HourMark{Hour: h, Label: HourLabel(h), Top: float64(h-start) * pph})
	}
	return marks
}

// HourLabel formats a 24h hour as "7 AM", "12 PM".
func HourLabel(h int) string {
	suffix := "AM"
	if h%24 >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d %s", h12, suffix)
}
