package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/storage"
)

type AppointmentHandler struct {
	store  storage.Store
	today  func() string
	logger *slog.Logger
}

// NewAppointmentHandler takes today as the clinic's current date for the when filter;
// nil means the local date.
func NewAppointmentHandler(store storage.Store, today func() string, logger *slog.Logger) *AppointmentHandler {
	if today == nil {
		today = func() string { return time.Now().Format(model.DateLayout) }
	}
	return &AppointmentHandler{store: store, today: today, logger: logger}
}

type updateStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type updateStatusResponse struct {
	ID     string       `json:"id"`
	Status model.Status `json:"status"`
}

type deleteRequest struct {
	ID string `json:"id"`
}

type deleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Appointments serves GET (list) and POST (create) on the collection.
func (h *AppointmentHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.Filter{
		Date:       strings.TrimSpace(q.Get("date")),
		After:      strings.TrimSpace(q.Get("after")),
		Before:     strings.TrimSpace(q.Get("before")),
		DoctorName: strings.TrimSpace(q.Get("doctor_name")),
	}
	for _, d := range []string{filter.Date, filter.After, filter.Before} {
		if d == "" {
			continue
		}
		if _, err := model.ParseDate(d); err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
	}
	switch when := strings.ToLower(strings.TrimSpace(q.Get("when"))); when {
	case "", "all":
	case "today":
		if filter.Date != "" && filter.Date != h.today() {
			writeJSON(w, http.StatusOK, []model.Appointment{})
			return
		}
		filter.Date = h.today()
	case "upcoming":
		filter.After = h.today()
	case "past":
		filter.Before = h.today()
	default:
		http.Error(w, "invalid when (today, upcoming, past)", http.StatusBadRequest)
		return
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		filter.Status = status
	}

	appts, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list appointments failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	var in model.CreateAppointmentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	appt, err := h.store.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, storage.ErrSlotTaken):
			http.Error(w, "time slot already booked", http.StatusConflict)
		default:
			h.logger.Error("create appointment failed", "err", err)
			http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("appointment created", "appointment_id", appt.ID, "doctor", appt.DoctorName, "date", appt.Date, "time", appt.Time)
	writeJSON(w, http.StatusCreated, appt)
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	appt, err := h.store.UpdateStatus(r.Context(), req.ID, status)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("update status failed", "err", err, "appointment_id", req.ID)
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updateStatusResponse{ID: appt.ID, Status: appt.Status})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req deleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	deleted, err := h.store.Delete(r.Context(), req.ID)
	if err != nil {
		h.logger.Error("delete appointment failed", "err", err, "appointment_id", req.ID)
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{ID: req.ID, Deleted: deleted})
}
