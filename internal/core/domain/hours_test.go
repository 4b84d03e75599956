package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseHours(t *testing.T) {
	h, err := ParseHours("10 AM - 10 PM")
	if err != nil {
		t.Fatalf("ParseHours: %v", err)
	}
	if h.Start != 600 || h.End != 1320 {
		t.Fatalf("unexpected window %+v", h)
	}

	h, err = ParseHours("12:30 AM - 12 PM")
	if err != nil {
		t.Fatalf("ParseHours: %v", err)
	}
	if h.Start != 30 || h.End != 720 {
		t.Fatalf("unexpected window %+v", h)
	}

	for _, bad := range []string{"", "10 - 10", "13 AM - 2 PM", "10 AM to 10 PM", "9:75 AM - 5 PM"} {
		if _, err := ParseHours(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("%q: expected ErrValidation, got %v", bad, err)
		}
	}
}

func TestHours_OpenAt(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	day := Hours{Start: 600, End: 1320}
	night := Hours{Start: 1200, End: 120}

	at := func(h, m int) time.Time { return time.Date(2026, 3, 2, h, m, 0, 0, ist) }

	tests := []struct {
		name  string
		hours Hours
		t     time.Time
		want  bool
	}{
		{"before opening", day, at(9, 59), false},
		{"at opening", day, at(10, 0), true},
		{"at closing", day, at(22, 0), false},
		{"late night inside", night, at(23, 30), true},
		{"after midnight inside", night, at(1, 15), true},
		{"morning outside", night, at(9, 0), false},
	}
	for _, tt := range tests {
		if got := tt.hours.OpenAt(tt.t.UTC(), ist); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOpenNow_MalformedIsClosed(t *testing.T) {
	if OpenNow("whenever", time.Now(), time.UTC) {
		t.Fatalf("malformed hours should read as closed")
	}
	if OpenNow("", time.Now(), time.UTC) {
		t.Fatalf("empty hours should read as closed")
	}
}
