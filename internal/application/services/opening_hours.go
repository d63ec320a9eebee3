package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/annuaire-sante/backend/internal/domain/entities"
)

const minutesPerDay = 24 * 60

// IsOpenAt reports whether the structure is open at t, read in loc.
// A structure on duty for t is open regardless of its weekly hours.
// Without recorded hours a structure is never open.
func IsOpenAt(structure *entities.Structure, t time.Time, loc *time.Location) bool {
	if structure == nil {
		return false
	}
	if structure.OnDutyAt(t) {
		return true
	}
	if len(structure.OpeningHours) == 0 {
		return false
	}

	if loc != nil {
		t = t.In(loc)
	}
	minute := t.Hour()*60 + t.Minute()

	if today, ok := structure.OpeningHours.For(t.Weekday()); ok {
		if open, closing, ok := parseInterval(today); ok {
			switch {
			case open == closing:
				return true
			case open < closing:
				if minute >= open && minute < closing {
					return true
				}
			default:
				// Overnight: the part after midnight belongs to the next day.
				if minute >= open {
					return true
				}
			}
		}
	}

	yesterday := (t.Weekday() + 6) % 7
	if prev, ok := structure.OpeningHours.For(yesterday); ok {
		if open, closing, ok := parseInterval(prev); ok && closing < open {
			return minute < closing
		}
	}
	return false
}

func parseInterval(d entities.DayHours) (int, int, bool) {
	if d.Closed {
		return 0, 0, false
	}
	open, ok := parseClock(d.Open)
	if !ok {
		return 0, 0, false
	}
	closing, ok := parseClock(d.Close)
	if !ok {
		return 0, 0, false
	}
	if open == minutesPerDay {
		return 0, 0, false
	}
	return open, closing, true
}

// parseClock reads "HH:MM" or "HHhMM" into minutes after midnight. "24:00"
// is accepted as the end of the day.
func parseClock(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	sep := ":"
	if !strings.Contains(s, sep) {
		sep = "h"
	}
	hh, mm, found := strings.Cut(s, sep)
	if !found {
		return 0, false
	}
	if mm == "" {
		mm = "0"
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, false
	}
	if h == 24 && m == 0 {
		return minutesPerDay, true
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
