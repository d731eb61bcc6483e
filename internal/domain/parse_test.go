package domain

import (
	"errors"
	"testing"
	"time"
)

func mustLoc(t *testing.T, tz string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return loc
}

func TestParseDate(t *testing.T) {
	loc := mustLoc(t, "Europe/Moscow")

	d, err := ParseDate("31.12.2023", loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Year() != 2023 || d.Month() != time.December || d.Day() != 31 {
		t.Fatalf("unexpected date %v", d)
	}
	if d.Location() != loc {
		t.Fatalf("want location %v, got %v", loc, d.Location())
	}

	if _, err := ParseDate(" 1.2.2030 ", loc); err != nil {
		t.Fatalf("single digit day/month should parse: %v", err)
	}

	for _, bad := range []string{"", "2023-12-31", "31.02.2030", "32.01.2030", "31.12.23", "tomorrow"} {
		if _, err := ParseDate(bad, loc); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("%q: want ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("14:30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h != 14 || m != 30 {
		t.Fatalf("want 14:30, got %d:%d", h, m)
	}

	for _, bad := range []string{"", "24:00", "12:60", "1430", "noon", "12:5"} {
		if _, _, err := ParseClock(bad); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("%q: want ErrInvalidTime, got %v", bad, err)
		}
	}
}

func TestCombine(t *testing.T) {
	loc := mustLoc(t, "Europe/Moscow")
	d, _ := ParseDate("01.01.2030", loc)
	got := Combine(d, 9, 0)
	want := time.Date(2030, time.January, 1, 9, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestParseOffset(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"Postpone for 5 minutes", 5 * time.Minute},
		{"Postpone for 15 minutes", 15 * time.Minute},
		{"Postpone for 1 hour", time.Hour},
		{"Postpone for 3 hours", 3 * time.Hour},
		{"Postpone for 7 min", 7 * time.Minute},
		{"Postpone for 2 Hours", 2 * time.Hour},
	}
	for _, tc := range cases {
		got, err := ParseOffset(tc.in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: want %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestParseOffset_Malformed(t *testing.T) {
	for _, bad := range []string{
		"Postpone forever",
		"Postpone for",
		"Postpone for five minutes",
		"Postpone for 5 days",
		"Postpone for 0 minutes",
		"Postpone for -5 minutes",
		"Postpone for 5 minutes please",
		"Delay for 5 minutes",
		"Postpone for 3000000 hours",
		"Postpone for 153722868 minutes",
		"Postpone for 99999999999999999999 minutes",
	} {
		if _, err := ParseOffset(bad); !errors.Is(err, ErrMalformedOffset) {
			t.Errorf("%q: want ErrMalformedOffset, got %v", bad, err)
		}
	}
}

func TestParseOffset_LargestAmount(t *testing.T) {
	d, err := ParseOffset("Postpone for 2562047 hours")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d != 2562047*time.Hour || d <= 0 {
		t.Fatalf("unexpected duration %v", d)
	}
}

func TestCanonicalOffsetsParse(t *testing.T) {
	for _, s := range CanonicalOffsets {
		if !IsPostpone(s) {
			t.Errorf("%q not recognized as postpone", s)
		}
		if _, err := ParseOffset(s); err != nil {
			t.Errorf("%q: %v", s, err)
		}
	}
}
