package domain

// Candle is a fixed-interval OHLC bar for a token.
// Volume is a proxy (swap/observation count) when trade-level volume is unavailable.
type Candle struct {
	TimestampMs int64   // bucket start, Unix milliseconds
	Open        float64 // first price in bucket
	High        float64 // max price in bucket
	Low         float64 // min price in bucket
	Close       float64 // last price in bucket
	Volume      float64 // volume proxy summed over the bucket
}

// Closes extracts close prices in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices in order.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices in order.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts volume proxies in order.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
