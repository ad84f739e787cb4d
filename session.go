package marketgate

import (
	"time"
	_ "time/tzdata" // the exchange calendar must not depend on the host zoneinfo
)

// Session is a trading session of an exchange day.
type Session string

const (
	PreMarket  Session = "pre-market"
	Regular    Session = "regular"
	AfterHours Session = "after-hours"
	Closed     Session = "closed"
)

// Calendar is a fixed exchange calendar: weekdays only, with session
// boundaries expressed as offsets from local midnight.
//
// Holidays are not known to the calendar.
type Calendar struct {
	Location        *time.Location
	PreMarketOpen   time.Duration
	RegularOpen     time.Duration
	RegularClose    time.Duration
	AfterHoursClose time.Duration
}

// NewYork returns the US equities calendar: pre-market 04:00–09:30, regular
// 09:30–16:00 and after-hours 16:00–20:00, America/New_York time.
func NewYork() Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata is embedded, this cannot happen.
		panic(err)
	}
	return Calendar{
		Location:        loc,
		PreMarketOpen:   4 * time.Hour,
		RegularOpen:     9*time.Hour + 30*time.Minute,
		RegularClose:    16 * time.Hour,
		AfterHoursClose: 20 * time.Hour,
	}
}

// Session classifies t.
func (c Calendar) Session(t time.Time) Session {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return Closed
	}
	offset := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second
	switch {
	case offset >= c.PreMarketOpen && offset < c.RegularOpen:
		return PreMarket
	case offset >= c.RegularOpen && offset < c.RegularClose:
		return Regular
	case offset >= c.RegularClose && offset < c.AfterHoursClose:
		return AfterHours
	}
	return Closed
}
