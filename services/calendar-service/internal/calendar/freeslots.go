package calendar

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/availability"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/layout"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/storage"
)

type FreeSlots struct {
	Date       string   `json:"date"`
	DoctorName string   `json:"doctorName"`
	Duration   int      `json:"duration"`
	Slots      []string `json:"slots"`
}

// FreeSlots lists the start times on the day grid where doctor could take a new booking
// of duration minutes. Cancelled appointments do not block a slot.
func (b *Builder) FreeSlots(ctx context.Context, date, doctor string, duration, step int) (FreeSlots, error) {
	if _, err := model.ParseDate(date); err != nil {
		return FreeSlots{}, err
	}
	if doctor == "" {
		return FreeSlots{}, fmt.Errorf("%w: doctor name is required", model.ErrInvalidInput)
	}
	if duration <= 0 || duration > model.MaxDurationMinutes || step <= 0 {
		return FreeSlots{}, fmt.Errorf("%w: duration and step must be positive", model.ErrInvalidInput)
	}

	appts, err := b.lister.List(ctx, storage.Filter{Date: date, DoctorName: doctor})
	if err != nil {
		return FreeSlots{}, fmt.Errorf("list appointments: %w", err)
	}
	busy := make([]layout.DayEvent, 0, len(appts))
	for _, a := range appts {
		if a.Status == model.StatusCancelled {
			continue
		}
		if e, err := layout.EventAt(a.ID, a.Time, a.DurationMinutes); err == nil {
			busy = append(busy, e)
		}
	}

	starts := availability.FreeSlots(b.cfg.Layout.DayStartHour*60, b.cfg.DayEndHour*60, duration, step, busy)
	out := FreeSlots{Date: date, DoctorName: doctor, Duration: duration, Slots: make([]string, 0, len(starts))}
	for _, s := range starts {
		out.Slots = append(out.Slots, availability.Clock(s))
	}
	return out, nil
}
