package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
)

type slotKey struct {
	doctor string
	date   string
	time   string
}

// MemoryStore keeps appointments in process. Used when no database is configured and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]model.Appointment
	slots map[slotKey]string
}

func NewMemoryStore(seed ...model.Appointment) *MemoryStore {
	s := &MemoryStore{
		byID:  make(map[string]model.Appointment),
		slots: make(map[slotKey]string),
	}
	for _, a := range seed {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		s.byID[a.ID] = a
		s.slots[slotKey{a.DoctorName, a.Date, a.Time}] = a.ID
	}
	return s
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]model.Appointment, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Appointment, 0, len(s.byID))
	for _, a := range s.byID {
		if f.matches(a) {
			out = append(out, a)
		}
	}
	sortAppointments(out)
	return out, nil
}

func (s *MemoryStore) Create(_ context.Context, in model.CreateAppointmentInput) (model.Appointment, error) {
	appt, err := in.Normalize()
	if err != nil {
		return model.Appointment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{appt.DoctorName, appt.Date, appt.Time}
	if _, taken := s.slots[key]; taken {
		return model.Appointment{}, ErrSlotTaken
	}
	appt.ID = uuid.NewString()
	s.byID[appt.ID] = appt
	s.slots[key] = appt.ID
	return appt, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status model.Status) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.byID[id]
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	appt.Status = status
	s.byID[id] = appt
	return appt, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	delete(s.byID, id)
	delete(s.slots, slotKey{appt.DoctorName, appt.Date, appt.Time})
	return true, nil
}
