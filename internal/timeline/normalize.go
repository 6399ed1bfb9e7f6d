package timeline

import (
	"strconv"
	"strings"
	"time"
)

// Service days roll over at 04:00, not midnight: GTFS times with hour
// values of 24 and beyond belong to the previous calendar day's schedule.
const serviceDayRollover = 4

// ServiceDayOrigin returns the start of the service day containing now.
// Before the rollover hour the service day is the previous calendar day,
// so a "25:10:00" trip and an early-morning "00:05:00" observation share
// an origin and stay comparable.
func ServiceDayOrigin(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if now.Hour() < serviceDayRollover {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// Normalize converts a raw GTFS clock string into an instant on the given
// service day. Accepts HH:MM and HH:MM:SS; hours may exceed 24 for
// past-midnight trips. Returns false for anything unparsable rather than
// guessing.
func Normalize(raw string, serviceDayOrigin time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	// Some prediction fields carry full timestamps instead of clock strings.
	if strings.ContainsRune(raw, 'T') {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, true
		}
		return time.Time{}, false
	}

	parts := strings.Split(raw, ":")
	if len(parts) == 2 {
		parts = append(parts, "00")
	}
	if len(parts) != 3 {
		return time.Time{}, false
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return time.Time{}, false
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil || s < 0 || s > 59 {
		return time.Time{}, false
	}

	offset := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	return serviceDayOrigin.Add(offset), true
}
