package stats

import (
	"context"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/storage"
)

func TestSummarize(t *testing.T) {
	appts := []model.Appointment{
		{DoctorName: "Dr. Sarah Johnson", Date: "2026-10-18", Status: model.StatusScheduled},
		{DoctorName: "Dr. Michael Chen", Date: "2026-10-18", Status: model.StatusCancelled},
		{DoctorName: "Dr. Sarah Johnson", Date: "2026-10-18", Status: model.StatusCompleted},
		{DoctorName: "Dr. David Lee", Date: "2026-10-17", Status: model.StatusScheduled},
	}
	st := Summarize("2026-10-18", appts, 500)

	if st.AppointmentsToday != 3 {
		t.Fatalf("expected 3 appointments, got %d", st.AppointmentsToday)
	}
	if st.ActiveDoctorCount != 2 || st.ActiveDoctors[0] != "Dr. Sarah Johnson" || st.ActiveDoctors[1] != "Dr. Michael Chen" {
		t.Fatalf("unexpected doctors: %v", st.ActiveDoctors)
	}
	if st.EstimatedRevenue != 1000 {
		t.Fatalf("expected revenue 1000, got %v", st.EstimatedRevenue)
	}
	if st.ByStatus[model.StatusCancelled] != 1 || st.ByStatus[model.StatusCompleted] != 1 {
		t.Fatalf("unexpected status counts: %v", st.ByStatus)
	}
}

func TestForDateDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	for _, clock := range []string{"09:00", "10:00"} {
		if _, err := store.Create(ctx, model.CreateAppointmentInput{
			PatientName: "P", DoctorName: "Dr. Emily White", Date: "2026-10-18", Time: clock,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	svc := NewService(store, 500, time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 23, 0, 0, 0, time.UTC) }

	st, err := svc.ForDate(ctx, "")
	if err != nil {
		t.Fatalf("ForDate: %v", err)
	}
	if st.Date != "2026-10-18" || st.AppointmentsToday != 2 || st.EstimatedRevenue != 1000 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	empty, err := svc.ForDate(ctx, "2026-10-19")
	if err != nil {
		t.Fatalf("ForDate: %v", err)
	}
	if empty.AppointmentsToday != 0 || empty.ActiveDoctors == nil {
		t.Fatalf("expected empty stats with non-nil doctor list, got %+v", empty)
	}
}

func TestForDateRejectsBadDate(t *testing.T) {
	svc := NewService(storage.NewMemoryStore(), 500, nil)
	if _, err := svc.ForDate(context.Background(), "tomorrow"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestTodayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+6", 6*3600)
	svc := NewService(storage.NewMemoryStore(), 500, loc)
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC) }
	if got := svc.Today(); got != "2026-10-19" {
		t.Fatalf("expected 2026-10-19 in UTC+6, got %s", got)
	}
}
