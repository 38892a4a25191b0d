package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/calendar"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/storage"
)

type Stats struct {
	Date              string               `json:"date"`
	AppointmentsToday int                  `json:"appointmentsToday"`
	ActiveDoctors     []string             `json:"activeDoctors"`
	ActiveDoctorCount int                  `json:"activeDoctorCount"`
	EstimatedRevenue  float64              `json:"estimatedRevenue"`
	ByStatus          map[model.Status]int `json:"byStatus"`
}

type Service struct {
	lister     calendar.Lister
	revenuePer float64
	loc        *time.Location
	now        func() time.Time
}

// NewService reports on dates in loc; nil means time.Local.
func NewService(lister calendar.Lister, revenuePerAppointment float64, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{lister: lister, revenuePer: revenuePerAppointment, loc: loc, now: time.Now}
}

func (s *Service) Today() string {
	return s.now().In(s.loc).Format(model.DateLayout)
}

// ForDate counts every appointment on date. Cancelled appointments still count toward the
// total and the doctor list but earn no revenue.
func (s *Service) ForDate(ctx context.Context, date string) (Stats, error) {
	if date == "" {
		date = s.Today()
	}
	if _, err := model.ParseDate(date); err != nil {
		return Stats{}, err
	}
	appts, err := s.lister.List(ctx, storage.Filter{Date: date})
	if err != nil {
		return Stats{}, fmt.Errorf("list appointments: %w", err)
	}
	return Summarize(date, appts, s.revenuePer), nil
}

func Summarize(date string, appts []model.Appointment, revenuePer float64) Stats {
	st := Stats{
		Date:          date,
		ActiveDoctors: []string{},
		ByStatus: map[model.Status]int{
			model.StatusScheduled: 0,
			model.StatusCompleted: 0,
			model.StatusCancelled: 0,
		},
	}
	seen := make(map[string]bool)
	billable := 0
	for _, a := range appts {
		if a.Date != date {
			continue
		}
		st.AppointmentsToday++
		st.ByStatus[a.Status]++
		if a.Status != model.StatusCancelled {
			billable++
		}
		if !seen[a.DoctorName] {
			seen[a.DoctorName] = true
			st.ActiveDoctors = append(st.ActiveDoctors, a.DoctorName)
		}
	}
	st.ActiveDoctorCount = len(st.ActiveDoctors)
	st.EstimatedRevenue = float64(billable) * revenuePer
	return st
}
