package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"

	DefaultDurationMinutes = 30
	MaxDurationMinutes     = 24 * 60
)

type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusScheduled, StatusCompleted, StatusCancelled} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
}

type Mode string

const (
	ModeInPerson Mode = "In-Person"
	ModeVideo    Mode = "Video"
	ModePhone    Mode = "Phone"
)

func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeInPerson, ModeVideo, ModePhone} {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
}

var ErrInvalidInput = errors.New("invalid appointment input")

// Appointment mirrors the record the dashboard reads. Date and Time are naive local values.
type Appointment struct {
	ID              string `json:"id"`
	PatientName     string `json:"patientName"`
	DoctorName      string `json:"doctorName"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration"`
	Status          Status `json:"status"`
	Mode            Mode   `json:"mode"`
}

// CreateAppointmentInput is what a booking form submits. EndTime is optional; when set and
// Duration is zero the duration is derived from it.
type CreateAppointmentInput struct {
	PatientName     string `json:"patientName"`
	DoctorName      string `json:"doctorName"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	EndTime         string `json:"endTime,omitempty"`
	DurationMinutes int    `json:"duration"`
	Mode            string `json:"mode"`
	Status          string `json:"status,omitempty"`
}

// Normalize validates the input and returns the appointment to store, without an ID.
func (in CreateAppointmentInput) Normalize() (Appointment, error) {
	appt := Appointment{
		PatientName: strings.TrimSpace(in.PatientName),
		DoctorName:  strings.TrimSpace(in.DoctorName),
		Date:        strings.TrimSpace(in.Date),
		Time:        strings.TrimSpace(in.Time),
		Status:      StatusScheduled,
		Mode:        ModeInPerson,
	}
	if appt.PatientName == "" || appt.DoctorName == "" {
		return Appointment{}, fmt.Errorf("%w: patientName and doctorName are required", ErrInvalidInput)
	}
	if _, err := time.Parse(DateLayout, appt.Date); err != nil {
		return Appointment{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	start, err := time.Parse(TimeLayout, appt.Time)
	if err != nil {
		return Appointment{}, fmt.Errorf("%w: time must be HH:mm", ErrInvalidInput)
	}
	appt.Time = start.Format(TimeLayout)

	duration := in.DurationMinutes
	if duration <= 0 && strings.TrimSpace(in.EndTime) != "" {
		end, err := time.Parse(TimeLayout, strings.TrimSpace(in.EndTime))
		if err != nil {
			return Appointment{}, fmt.Errorf("%w: endTime must be HH:mm", ErrInvalidInput)
		}
		duration = int(end.Sub(start).Minutes())
	}
	if duration <= 0 {
		duration = DefaultDurationMinutes
	}
	if duration > MaxDurationMinutes {
		return Appointment{}, fmt.Errorf("%w: duration exceeds one day", ErrInvalidInput)
	}
	appt.DurationMinutes = duration

	if strings.TrimSpace(in.Mode) != "" {
		if appt.Mode, err = ParseMode(in.Mode); err != nil {
			return Appointment{}, err
		}
	}
	if strings.TrimSpace(in.Status) != "" {
		if appt.Status, err = ParseStatus(in.Status); err != nil {
			return Appointment{}, err
		}
	}
	return appt, nil
}

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return d, nil
}
