package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const closedMarker = "closed"

// DayHours is the opening interval for one weekday, or a closed day.
// Open and Close are "HH:MM" in the structure's local time.
type DayHours struct {
	Closed bool
	Open   string
	Close  string
}

type dayHoursJSON struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// MarshalJSON writes "closed" or {"open": ..., "close": ...}
func (d DayHours) MarshalJSON() ([]byte, error) {
	if d.Closed {
		return json.Marshal(closedMarker)
	}
	return json.Marshal(dayHoursJSON{Open: d.Open, Close: d.Close})
}

// UnmarshalJSON accepts "closed" (or "fermé"), "08:00-18:00" and
// {"open": "08:00", "close": "18:00"}.
func (d *DayHours) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parseString(s)
	}

	var obj dayHoursJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("opening hours: %w", err)
	}
	*d = DayHours{Open: strings.TrimSpace(obj.Open), Close: strings.TrimSpace(obj.Close)}
	return nil
}

func (d *DayHours) parseString(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case closedMarker, "ferme", "fermé", "":
		*d = DayHours{Closed: true}
		return nil
	}

	open, closing, ok := strings.Cut(s, "-")
	if !ok {
		return fmt.Errorf("opening hours: unrecognised value %q", s)
	}
	*d = DayHours{Open: strings.TrimSpace(open), Close: strings.TrimSpace(closing)}
	return nil
}

// OpeningHours maps a weekday name to its hours. Keys are English or
// French weekday names in any case; decoding stores them under the
// lowercase English name.
type OpeningHours map[string]DayHours

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "dimanche": time.Sunday,
	"monday": time.Monday, "lundi": time.Monday,
	"tuesday": time.Tuesday, "mardi": time.Tuesday,
	"wednesday": time.Wednesday, "mercredi": time.Wednesday,
	"thursday": time.Thursday, "jeudi": time.Thursday,
	"friday": time.Friday, "vendredi": time.Friday,
	"saturday": time.Saturday, "samedi": time.Saturday,
}

func weekdayOf(key string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(key))]
	return wd, ok
}

// Normalize returns a copy keyed by lowercase English weekday names. Unknown
// names and two keys naming the same day are errors.
func (h OpeningHours) Normalize() (OpeningHours, error) {
	if h == nil {
		return nil, nil
	}
	out := make(OpeningHours, len(h))
	seen := make(map[time.Weekday]string, len(h))
	for key, hours := range h {
		wd, ok := weekdayOf(key)
		if !ok {
			return nil, fmt.Errorf("opening hours: unknown weekday %q", key)
		}
		if prev, dup := seen[wd]; dup {
			return nil, fmt.Errorf("opening hours: %q and %q both name %s", prev, key, wd)
		}
		seen[wd] = key
		out[strings.ToLower(wd.String())] = hours
	}
	return out, nil
}

// For returns the hours recorded for day, if any. When several keys name
// the same day the lexically smallest key wins.
func (h OpeningHours) For(day time.Weekday) (DayHours, bool) {
	var (
		best  string
		found bool
	)
	for key := range h {
		if wd, ok := weekdayOf(key); ok && wd == day && (!found || key < best) {
			best, found = key, true
		}
	}
	if !found {
		return DayHours{}, false
	}
	return h[best], true
}

// UnmarshalJSON decodes the map and normalizes its keys
func (h *OpeningHours) UnmarshalJSON(data []byte) error {
	var raw map[string]DayHours
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out, err := OpeningHours(raw).Normalize()
	if err != nil {
		return err
	}
	*h = out
	return nil
}

// Value stores the map as a JSON document
func (h OpeningHours) Value() (driver.Value, error) {
	if len(h) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON document column
func (h *OpeningHours) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*h = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("opening hours: cannot scan %T", src)
	}
	if len(data) == 0 {
		*h = nil
		return nil
	}
	var out OpeningHours
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*h = out
	return nil
}
