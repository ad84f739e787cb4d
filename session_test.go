package marketgate

import (
	"testing"
	"time"
)

func TestCalendar_Session(t *testing.T) {
	cal := NewYork()
	at := func(day, hour, min int) time.Time {
		return time.Date(2025, 3, day, hour, min, 0, 0, cal.Location)
	}
	tests := []struct {
		name string
		t    time.Time
		want Session
	}{
		{"night", at(11, 3, 59), Closed},
		{"pre-market open", at(11, 4, 0), PreMarket},
		{"pre-market", at(11, 9, 29), PreMarket},
		{"regular open", at(11, 9, 30), Regular},
		{"regular", at(11, 15, 59), Regular},
		{"after-hours open", at(11, 16, 0), AfterHours},
		{"after-hours", at(11, 19, 59), AfterHours},
		{"evening", at(11, 20, 0), Closed},
		{"saturday", at(15, 11, 0), Closed},
		{"sunday", at(16, 11, 0), Closed},
		// DST started on Sunday 2025-03-09.
		{"after DST switch", time.Date(2025, 3, 10, 13, 30, 0, 0, time.UTC), Regular},
		{"before DST switch", time.Date(2025, 3, 7, 14, 29, 0, 0, time.UTC), PreMarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.Session(tt.t); got != tt.want {
				t.Errorf("Session(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}
