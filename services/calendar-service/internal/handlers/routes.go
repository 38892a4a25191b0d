package handlers

import "net/http"

func Register(mux *http.ServeMux, appts *AppointmentHandler, cal *CalendarHandler) {
	mux.HandleFunc("/api/v1/appointments", appts.Appointments)
	mux.HandleFunc("/api/v1/appointments/status", appts.UpdateStatus)
	mux.HandleFunc("/api/v1/appointments/delete", appts.Delete)
	mux.HandleFunc("/api/v1/calendar/day", cal.Day)
	mux.HandleFunc("/api/v1/calendar/free-slots", cal.FreeSlots)
	mux.HandleFunc("/api/v1/dashboard/stats", cal.Stats)
}
