package marketgate

import "time"

// BarsQuery selects historical bars.
type BarsQuery struct {
	// Timeframe is the bar aggregation, like "1Min", "1Hour" or "1Day".
	Timeframe string
	Start     time.Time
	End       time.Time
}

// LastDays returns the daily bars query covering the given number of days up
// to now.
func LastDays(days int, now time.Time) BarsQuery {
	end := now.UTC().Truncate(24 * time.Hour)
	return BarsQuery{
		Timeframe: "1Day",
		Start:     end.AddDate(0, 0, -days),
		End:       end,
	}
}

// Key returns the cache key of q over symbols.
func (q BarsQuery) Key(symbols []string) string {
	return BarsKey(symbols, q.Timeframe, formatTime(q.Start), formatTime(q.End))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
