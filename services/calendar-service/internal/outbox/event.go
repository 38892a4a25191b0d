package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
)

const (
	AggregateAppointment = "appointment"

	EventAppointmentCreated       = "appointment.created.v1"
	EventAppointmentStatusChanged = "appointment.status_changed.v1"
	EventAppointmentDeleted       = "appointment.deleted.v1"
)

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

func AppointmentCreated(appt model.Appointment, at time.Time) (Event, error) {
	return appointmentEvent(EventAppointmentCreated, appt.ID, map[string]any{
		"appointment_id": appt.ID,
		"patient_name":   appt.PatientName,
		"doctor_name":    appt.DoctorName,
		"date":           appt.Date,
		"time":           appt.Time,
		"duration":       appt.DurationMinutes,
		"status":         appt.Status,
		"mode":           appt.Mode,
		"occurred_at":    at.UTC().Format(time.RFC3339),
	})
}

func AppointmentStatusChanged(id string, from, to model.Status, at time.Time) (Event, error) {
	return appointmentEvent(EventAppointmentStatusChanged, id, map[string]any{
		"appointment_id":  id,
		"previous_status": from,
		"status":          to,
		"occurred_at":     at.UTC().Format(time.RFC3339),
	})
}

func AppointmentDeleted(id string, at time.Time) (Event, error) {
	return appointmentEvent(EventAppointmentDeleted, id, map[string]any{
		"appointment_id": id,
		"occurred_at":    at.UTC().Format(time.RFC3339),
	})
}

func appointmentEvent(eventType, id string, payload map[string]any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: AggregateAppointment,
		AggregateID:   id,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
