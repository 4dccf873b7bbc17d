package clock_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-formkit/pkg/clock"
)

func TestReal_Now(t *testing.T) {
	c := clock.Real{}

	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", got, before, after)
	}
}

func TestFake_SetAndAdvance(t *testing.T) {
	c := clock.AtYear(2024)
	if got := clock.Year(c); got != 2024 {
		t.Fatalf("Year() = %d, want 2024", got)
	}

	c.Advance(366 * 24 * time.Hour)
	if got := clock.Year(c); got != 2025 {
		t.Fatalf("Year() after advance = %d, want 2025", got)
	}

	c.Set(time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC))
	if got := c.Now().Year(); got != 1999 {
		t.Fatalf("Now().Year() = %d, want 1999", got)
	}
}

func TestYear_NilFallsBackToSystem(t *testing.T) {
	if got, want := clock.Year(nil), time.Now().Year(); got != want {
		t.Fatalf("Year(nil) = %d, want %d", got, want)
	}
}
