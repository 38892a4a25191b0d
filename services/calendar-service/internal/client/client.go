// Package client talks to calendar-service over HTTP. Reads degrade to empty results and
// writes report plain success, so a dashboard keeps rendering while the service is down.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/calendar"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/model"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ calendar.Lister = (*Client)(nil)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("calendar-service returned %d: %s", e.Code, e.Body)
}

// List returns the appointments matching f and any transport or decode error.
func (c *Client) List(ctx context.Context, f storage.Filter) ([]model.Appointment, error) {
	q := url.Values{}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	if f.After != "" {
		q.Set("after", f.After)
	}
	if f.Before != "" {
		q.Set("before", f.Before)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.DoctorName != "" {
		q.Set("doctor_name", f.DoctorName)
	}
	var appts []model.Appointment
	if err := c.do(ctx, http.MethodGet, "/api/v1/appointments", q, nil, &appts); err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	return appts, nil
}

// Appointments is List with failures logged and turned into an empty slice.
func (c *Client) Appointments(ctx context.Context, f storage.Filter) []model.Appointment {
	appts, err := c.List(ctx, f)
	if err != nil {
		c.logger.Error("fetch appointments failed", "err", err)
		return []model.Appointment{}
	}
	return appts
}

func (c *Client) Create(ctx context.Context, in model.CreateAppointmentInput) (model.Appointment, error) {
	var appt model.Appointment
	if err := c.do(ctx, http.MethodPost, "/api/v1/appointments", nil, in, &appt); err != nil {
		c.logger.Error("create appointment failed", "err", err)
		return model.Appointment{}, err
	}
	return appt, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status model.Status) bool {
	body := map[string]string{"id": id, "status": string(status)}
	if err := c.do(ctx, http.MethodPost, "/api/v1/appointments/status", nil, body, nil); err != nil {
		c.logger.Error("update status failed", "err", err, "appointment_id", id)
		return false
	}
	return true
}

// Delete reports true only when the service removed an appointment.
func (c *Client) Delete(ctx context.Context, id string) bool {
	var resp struct {
		Deleted bool `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/appointments/delete", nil, map[string]string{"id": id}, &resp); err != nil {
		c.logger.Error("delete appointment failed", "err", err, "appointment_id", id)
		return false
	}
	return resp.Deleted
}

func (c *Client) DayView(ctx context.Context, date string, q calendar.Query) (calendar.DayView, error) {
	params := url.Values{}
	params.Set("date", date)
	params.Set("mode", q.Mode.String())
	if q.IncludeCancelled {
		params.Set("include_cancelled", strconv.FormatBool(true))
	}
	var view calendar.DayView
	if err := c.do(ctx, http.MethodGet, "/api/v1/calendar/day", params, nil, &view); err != nil {
		return calendar.DayView{}, err
	}
	return view, nil
}

// FreeSlots asks the server for open start times; duration and step of zero use the server defaults.
func (c *Client) FreeSlots(ctx context.Context, date, doctor string, duration, step int) (calendar.FreeSlots, error) {
	params := url.Values{}
	params.Set("date", date)
	params.Set("doctor_name", doctor)
	if duration > 0 {
		params.Set("duration", strconv.Itoa(duration))
	}
	if step > 0 {
		params.Set("step", strconv.Itoa(step))
	}
	var slots calendar.FreeSlots
	if err := c.do(ctx, http.MethodGet, "/api/v1/calendar/free-slots", params, nil, &slots); err != nil {
		return calendar.FreeSlots{}, err
	}
	return slots, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
