package model

// Quote is the normalized view of the two most recent daily bars.
type Quote struct {
	Open               float64 `json:"open"`
	Close              float64 `json:"close"`
	High               float64 `json:"high"`
	Low                float64 `json:"low"`
	TwoDayVariation    float64 `json:"two_day_variation"`
	TwoDayVariationPct float64 `json:"two_day_variation_pct"`
}

// DailyBar is one entry of a daily time series, newest first.
type DailyBar struct {
	Date  string
	Open  float64
	High  float64
	Low   float64
	Close float64
}
