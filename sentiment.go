package marketgate

import "time"

// FearGreed is a reading of the market Fear & Greed index, from 0 (extreme
// fear) to 100 (extreme greed).
type FearGreed struct {
	Score         int       `json:"score"`
	Rating        string    `json:"rating"`
	Timestamp     time.Time `json:"timestamp"`
	PreviousClose *int      `json:"previousClose"`
	OneWeekAgo    *int      `json:"oneWeekAgo"`
	OneMonthAgo   *int      `json:"oneMonthAgo"`
}

// FearGreedRating names the band a score falls in.
func FearGreedRating(score int) string {
	switch {
	case score < 0 || score > 100:
		return "Unknown"
	case score <= 24:
		return "Extreme Fear"
	case score <= 44:
		return "Fear"
	case score <= 55:
		return "Neutral"
	case score <= 75:
		return "Greed"
	}
	return "Extreme Greed"
}
