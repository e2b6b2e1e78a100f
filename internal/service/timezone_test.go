package service

import (
	"errors"
	"testing"
	"time"
)

func TestLocalizeWithoutTimezone(t *testing.T) {
	in := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)
	local, canonical, err := Localize("", in, true)
	if err != nil {
		t.Fatal(err)
	}
	if local != nil {
		t.Errorf("local = %v, want nil", local)
	}
	if !canonical.Equal(in) {
		t.Errorf("canonical = %v, want %v", canonical, in)
	}
}

func TestLocalizeUTCSource(t *testing.T) {
	in := time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC)
	local, canonical, err := Localize("Europe/Paris", in, true)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	if local == nil || !local.Equal(want) {
		t.Errorf("local = %v, want %v", local, want)
	}
	if !canonical.Equal(in) {
		t.Errorf("canonical = %v, want %v", canonical, in)
	}
}

func TestLocalizeWallClockSource(t *testing.T) {
	wall := time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC)
	local, canonical, err := Localize("America/New_York", wall, false)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2023, 1, 15, 14, 30, 0, 0, time.UTC); !canonical.Equal(want) {
		t.Errorf("canonical = %v, want %v", canonical, want)
	}
	if local == nil || !local.Equal(wall) {
		t.Errorf("local = %v, want %v", local, wall)
	}
	if canonical.Location() != time.UTC {
		t.Errorf("canonical location = %v, want UTC", canonical.Location())
	}
}

func TestLocalizeRoundTrip(t *testing.T) {
	zones := []string{"Europe/Paris", "America/Los_Angeles", "Asia/Kolkata", "Australia/Sydney", "UTC"}
	instants := []time.Time{
		time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2022, 12, 31, 23, 59, 30, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 15, 0, 0, time.UTC),
	}
	for _, tz := range zones {
		for _, in := range instants {
			local, _, err := Localize(tz, in, true)
			if err != nil {
				t.Fatalf("%s: %v", tz, err)
			}
			_, back, err := Localize(tz, *local, false)
			if err != nil {
				t.Fatalf("%s: %v", tz, err)
			}
			if !back.Equal(in) {
				t.Errorf("%s: round trip of %v gave %v", tz, in, back)
			}
		}
	}
}

func TestLocalizeUnknownZone(t *testing.T) {
	_, _, err := Localize("Mars/Olympus", time.Now(), true)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
