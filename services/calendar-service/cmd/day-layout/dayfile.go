package main

import (
	"context"
	"fmt"
	"os"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/storage"
	"gopkg.in/yaml.v3"
)

// dayFile is the YAML input:
//
//	date: 2026-10-18
//	mode: clustered
//	appointments:
//	  - {id: a, doctor: Dr. Sarah Johnson, time: "09:00", duration: 60}
type dayFile struct {
	Date          string  `yaml:"date"`
	Mode          string  `yaml:"mode"`
	DayStartHour  *int    `yaml:"day_start_hour"`
	DayEndHour    *int    `yaml:"day_end_hour"`
	PixelsPerHour float64 `yaml:"pixels_per_hour"`

	Appointments []dayFileAppointment `yaml:"appointments"`
}

type dayFileAppointment struct {
	ID       string `yaml:"id"`
	Patient  string `yaml:"patient"`
	Doctor   string `yaml:"doctor"`
	Time     string `yaml:"time"`
	Duration int    `yaml:"duration"`
	Status   string `yaml:"status"`
	Mode     string `yaml:"mode"`
}

func loadDayFile(path string) (dayFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dayFile{}, err
	}
	var df dayFile
	if err := yaml.Unmarshal(raw, &df); err != nil {
		return dayFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if df.Date == "" {
		return dayFile{}, fmt.Errorf("%s: date is required", path)
	}
	if _, err := model.ParseDate(df.Date); err != nil {
		return dayFile{}, fmt.Errorf("%s: %w", path, err)
	}
	if df.DayStartHour != nil && (*df.DayStartHour < 0 || *df.DayStartHour > 23) {
		return dayFile{}, fmt.Errorf("%s: day_start_hour must be 0-23 (got %d)", path, *df.DayStartHour)
	}
	if df.DayEndHour != nil && (*df.DayEndHour < 1 || *df.DayEndHour > 24) {
		return dayFile{}, fmt.Errorf("%s: day_end_hour must be 1-24 (got %d)", path, *df.DayEndHour)
	}
	if df.DayStartHour != nil && df.DayEndHour != nil && *df.DayEndHour <= *df.DayStartHour {
		return dayFile{}, fmt.Errorf("%s: day_end_hour must be after day_start_hour", path)
	}
	return df, nil
}

// dayLister hands the file's appointments to the calendar builder in file order. Entries
// sharing an id or a slot are all kept, and file order breaks layout ties.
type dayLister []model.Appointment

func (l dayLister) List(_ context.Context, _ storage.Filter) ([]model.Appointment, error) {
	return append([]model.Appointment(nil), l...), nil
}

// appointments keeps entries as written so the layout reports bad times and durations
// instead of the loader rejecting them.
func (df dayFile) appointments() ([]model.Appointment, error) {
	out := make([]model.Appointment, 0, len(df.Appointments))
	for i, a := range df.Appointments {
		appt := model.Appointment{
			ID:              a.ID,
			PatientName:     a.Patient,
			DoctorName:      a.Doctor,
			Date:            df.Date,
			Time:            a.Time,
			DurationMinutes: a.Duration,
			Status:          model.StatusScheduled,
			Mode:            model.ModeInPerson,
		}
		if appt.ID == "" {
			appt.ID = fmt.Sprintf("event-%d", i+1)
		}
		if a.Status != "" {
			status, err := model.ParseStatus(a.Status)
			if err != nil {
				return nil, fmt.Errorf("appointment %s: %w", appt.ID, err)
			}
			appt.Status = status
		}
		if a.Mode != "" {
			mode, err := model.ParseMode(a.Mode)
			if err != nil {
				return nil, fmt.Errorf("appointment %s: %w", appt.ID, err)
			}
			appt.Mode = mode
		}
		out = append(out, appt)
	}
	return out, nil
}
