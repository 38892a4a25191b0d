package storage

import (
	"context"
	"errors"
	"sort"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
)

var (
	ErrNotFound  = errors.New("appointment not found")
	ErrSlotTaken = errors.New("doctor already booked at that date and time")
)

// Filter narrows List. Empty fields match everything. After and Before are exclusive
// YYYY-MM-DD bounds.
type Filter struct {
	Date       string
	After      string
	Before     string
	Status     model.Status
	DoctorName string
}

func (f Filter) validate() error {
	for _, d := range []string{f.Date, f.After, f.Before} {
		if d == "" {
			continue
		}
		if _, err := model.ParseDate(d); err != nil {
			return err
		}
	}
	return nil
}

// Dates are fixed-width YYYY-MM-DD, so string order is calendar order.
func (f Filter) matches(a model.Appointment) bool {
	if f.Date != "" && a.Date != f.Date {
		return false
	}
	if f.After != "" && a.Date <= f.After {
		return false
	}
	if f.Before != "" && a.Date >= f.Before {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.DoctorName != "" && a.DoctorName != f.DoctorName {
		return false
	}
	return true
}

type Store interface {
	List(ctx context.Context, f Filter) ([]model.Appointment, error)
	Create(ctx context.Context, in model.CreateAppointmentInput) (model.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) (model.Appointment, error)
	// Delete reports false when no appointment had the id.
	Delete(ctx context.Context, id string) (bool, error)
}

func sortAppointments(appts []model.Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		a, b := appts[i], appts[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		if a.DoctorName != b.DoctorName {
			return a.DoctorName < b.DoctorName
		}
		return a.ID < b.ID
	})
}
