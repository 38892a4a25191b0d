package availability

import (
	"fmt"

	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/layout"
)

// FreeSlots returns start minutes within [windowStart, windowEnd) where a booking of
// duration minutes would not overlap any busy event. Candidates advance by step minutes.
// Minutes are counted from midnight.
func FreeSlots(windowStart, windowEnd, duration, step int, busy []layout.DayEvent) []int {
	if duration <= 0 || step <= 0 {
		return nil
	}
	if windowEnd <= windowStart || windowStart+duration > windowEnd {
		return nil
	}

	var slots []int
	for t := windowStart; t+duration <= windowEnd; t += step {
		candidate := layout.DayEvent{StartHour: t / 60, StartMinute: t % 60, DurationMinutes: duration}
		if !overlapsAny(candidate, busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(candidate layout.DayEvent, busy []layout.DayEvent) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// Clock formats minutes since midnight as "HH:mm".
func Clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
