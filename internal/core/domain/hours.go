package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Hours is a daily opening window in minutes from midnight. End may be
// smaller than Start when the window crosses midnight.
type Hours struct {
	Start int
	End   int
}

// ParseHours parses "<start> - <end>" where each side is a 12-hour clock
// time such as "9 AM", "10:30 PM" or "12:00 AM".
func ParseHours(s string) (Hours, error) {
	parts := strings.Split(s, " - ")
	if len(parts) != 2 {
		return Hours{}, fmt.Errorf("%w: hours %q must look like \"10 AM - 10 PM\"", ErrValidation, s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return Hours{}, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return Hours{}, err
	}
	return Hours{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: time %q needs an AM/PM suffix", ErrValidation, s)
	}
	hm := strings.SplitN(fields[0], ":", 2)
	h, err := strconv.Atoi(hm[0])
	if err != nil || h < 1 || h > 12 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrValidation, s)
	}
	m := 0
	if len(hm) == 2 {
		m, err = strconv.Atoi(hm[1])
		if err != nil || m < 0 || m > 59 {
			return 0, fmt.Errorf("%w: bad minute in %q", ErrValidation, s)
		}
	}
	switch strings.ToUpper(fields[1]) {
	case "AM":
		if h == 12 {
			h = 0
		}
	case "PM":
		if h != 12 {
			h += 12
		}
	default:
		return 0, fmt.Errorf("%w: time %q needs an AM/PM suffix", ErrValidation, s)
	}
	return h*60 + m, nil
}

// OpenAt reports whether t, read as a wall clock in loc, falls inside the window.
func (h Hours) OpenAt(t time.Time, loc *time.Location) bool {
	if loc != nil {
		t = t.In(loc)
	}
	now := t.Hour()*60 + t.Minute()
	if h.End < h.Start {
		return now >= h.Start || now < h.End
	}
	return now >= h.Start && now < h.End
}

// OpenNow evaluates a free-text hours string; malformed or empty hours count as closed.
func OpenNow(hours string, t time.Time, loc *time.Location) bool {
	if hours == "" {
		return false
	}
	h, err := ParseHours(hours)
	if err != nil {
		return false
	}
	return h.OpenAt(t, loc)
}
