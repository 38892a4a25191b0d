package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/calendar"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/layout"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/stats"
)

type CalendarHandler struct {
	builder     *calendar.Builder
	stats       *stats.Service
	defaultMode layout.Mode
	logger      *slog.Logger
}

func NewCalendarHandler(builder *calendar.Builder, statsSvc *stats.Service, defaultMode layout.Mode, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{builder: builder, stats: statsSvc, defaultMode: defaultMode, logger: logger}
}

// Day serves the positioned appointments of one day. The date defaults to today.
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	if date == "" {
		date = h.stats.Today()
	}

	query := calendar.Query{Mode: h.defaultMode}
	if raw := q.Get("mode"); raw != "" {
		mode, err := layout.ParseMode(raw)
		if err != nil {
			http.Error(w, "invalid mode", http.StatusBadRequest)
			return
		}
		query.Mode = mode
	}
	if raw := q.Get("include_cancelled"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, "invalid include_cancelled", http.StatusBadRequest)
			return
		}
		query.IncludeCancelled = include
	}

	view, err := h.builder.Build(r.Context(), date, query)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		h.logger.Error("build day view failed", "err", err, "date", date)
		http.Error(w, "failed to build day view", http.StatusInternalServerError)
		return
	}
	if len(view.Skipped) > 0 {
		h.logger.Warn("appointments skipped in day view", "date", date, "count", len(view.Skipped))
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CalendarHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	if date == "" {
		date = h.stats.Today()
	}
	duration := model.DefaultDurationMinutes
	if raw := strings.TrimSpace(q.Get("duration")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid duration", http.StatusBadRequest)
			return
		}
		duration = n
	}
	step := 15
	if raw := strings.TrimSpace(q.Get("step")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid step", http.StatusBadRequest)
			return
		}
		step = n
	}

	slots, err := h.builder.FreeSlots(r.Context(), date, strings.TrimSpace(q.Get("doctor_name")), duration, step)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("free slots failed", "err", err, "date", date)
		http.Error(w, "failed to compute free slots", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *CalendarHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st, err := h.stats.ForDate(r.Context(), strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		h.logger.Error("dashboard stats failed", "err", err)
		http.Error(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
