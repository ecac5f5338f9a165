package indicators

import "math"

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|). Index 0 has no
// previous close and is unavailable.
func TrueRange(highs, lows, closes []float64) Series {
	n := len(closes)
	out := unavailable(n)
	if len(highs) != n || len(lows) != n {
		return out
	}
	for i := 1; i < n; i++ {
		out[i] = trueRange(highs[i], lows[i], closes[i-1])
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

// ATR is Wilder's average true range. The first value, at index p, is the
// mean of true ranges 1..p. Available from index p.
func ATR(highs, lows, closes []float64, p int) Series {
	n := len(closes)
	out := unavailable(n)
	if p <= 0 || n < p+1 || len(highs) != n || len(lows) != n {
		return out
	}
	tr := TrueRange(highs, lows, closes)

	var sum float64
	for i := 1; i <= p; i++ {
		sum += tr[i]
	}
	out[p] = sum / float64(p)
	for i := p + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(p-1) + tr[i]) / float64(p)
	}
	return out
}
