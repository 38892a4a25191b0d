package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/calendar"
)

const sampleDay = `
date: "2026-10-18"
appointments:
  - id: a
    doctor: Dr. Sarah Johnson
    time: "09:00"
    duration: 60
  - id: b
    doctor: Dr. Michael Chen
    time: "09:30"
    duration: 30
  - id: c
    doctor: Dr. Emily White
    time: "13:00"
    duration: 30
    status: cancelled
  - id: broken
    doctor: Dr. David Lee
    time: "9:75"
    duration: 30
`

func writeDay(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "day.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write day file: %v", err)
	}
	return path
}

func TestRunFileJSON(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"-file", writeDay(t, sampleDay), "-format", "json", "-include-cancelled"}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var view calendar.DayView
	if err := json.Unmarshal(out.Bytes(), &view); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if view.Columns != 2 || len(view.Events) != 3 || len(view.Skipped) != 1 || view.Skipped[0].ID != "broken" {
		t.Fatalf("unexpected view: %+v", view)
	}
	first := view.Events[0]
	if first.ID != "a" || first.Top != 160 || first.Height != 80 || first.Width != 50 {
		t.Fatalf("unexpected first event: %+v", first)
	}
}

func TestRunFileTableClustered(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-file", writeDay(t, sampleDay), "-mode", "clustered"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{"mode=clustered", "hidden=1", "Dr. Sarah Johnson", "skipped broken"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Dr. Emily White") {
		t.Fatalf("cancelled appointment should be hidden:\n%s", text)
	}
}

func TestRunRejectsBadArgs(t *testing.T) {
	path := writeDay(t, sampleDay)
	cases := [][]string{
		{},
		{"-file", path, "-server", "http://localhost:8085"},
		{"-file", path, "-format", "xml"},
		{"-file", path, "-mode", "weekly"},
		{"-file", writeDay(t, "appointments: []")},
		{"-file", writeDay(t, "date: 2026-10-18\nappointments:\n  - {id: x, time: '09:00', duration: 30, status: Lost}")},
	}
	for _, args := range cases {
		t.Setenv("CALENDAR_SERVICE_URL", "")
		if err := run(context.Background(), args, &bytes.Buffer{}); err == nil {
			t.Fatalf("expected error for args %v", args)
		}
	}
}

func runJSON(t *testing.T, body string) calendar.DayView {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-file", writeDay(t, body), "-format", "json"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	var view calendar.DayView
	if err := json.Unmarshal(out.Bytes(), &view); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return view
}

func TestRunKeepsDuplicateIDs(t *testing.T) {
	view := runJSON(t, `
date: "2026-10-18"
appointments:
  - {id: dup, doctor: Dr. Sarah Johnson, time: "09:00", duration: 30}
  - {id: dup, doctor: Dr. Michael Chen, time: "11:00", duration: 45}
`)
	if len(view.Events) != 2 || view.Events[0].ID != "dup" || view.Events[1].ID != "dup" {
		t.Fatalf("expected both dup entries laid out, got %+v", view.Events)
	}
}

func TestRunIdenticalSlotFollowsFileOrder(t *testing.T) {
	const day = `
date: "2026-10-18"
appointments:
  - {id: first, doctor: Dr. Sarah Johnson, time: "09:00", duration: 30}
  - {id: second, doctor: Dr. Sarah Johnson, time: "09:00", duration: 30}
`
	for i := 0; i < 20; i++ {
		view := runJSON(t, day)
		if len(view.Events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(view.Events))
		}
		if view.Events[0].ID != "first" || view.Events[0].Column != 0 || view.Events[1].Column != 1 {
			t.Fatalf("run %d: file order should decide columns, got %+v", i, view.Events)
		}
	}
}

func TestRunLateDayStart(t *testing.T) {
	view := runJSON(t, `
date: "2026-10-18"
day_start_hour: 19
appointments:
  - {id: late, doctor: Dr. David Lee, time: "20:00", duration: 60}
`)
	if view.DayStartHour != 19 || view.DayEndHour <= 19 || len(view.Hours) == 0 {
		t.Fatalf("unexpected grid: start=%d end=%d hours=%d", view.DayStartHour, view.DayEndHour, len(view.Hours))
	}
	if len(view.Events) != 1 || view.Events[0].Top != 80 {
		t.Fatalf("unexpected events: %+v", view.Events)
	}
}

func TestRunRejectsOutOfRangeHours(t *testing.T) {
	for _, header := range []string{
		"day_start_hour: 30",
		"day_start_hour: -2",
		"day_end_hour: 25",
		"day_start_hour: 12\nday_end_hour: 9",
	} {
		body := "date: \"2026-10-18\"\n" + header + "\nappointments: []\n"
		if err := run(context.Background(), []string{"-file", writeDay(t, body)}, &bytes.Buffer{}); err == nil {
			t.Fatalf("expected error for %q", header)
		}
	}
}
