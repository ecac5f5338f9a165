package indicators

// VWAPProxy is cumulative typical price * volume over cumulative volume,
// using the volume proxy. Unavailable while cumulative volume is zero.
func VWAPProxy(highs, lows, closes, volumes []float64) Series {
	n := len(closes)
	out := unavailable(n)
	if len(highs) != n || len(lows) != n || len(volumes) != n {
		return out
	}
	var sumPV, sumV float64
	for i := 0; i < n; i++ {
		tp := (highs[i] + lows[i] + closes[i]) / 3.0
		sumPV += tp * volumes[i]
		sumV += volumes[i]
		if sumV > 0 {
			out[i] = sumPV / sumV
		}
	}
	return out
}

// OBVProxy accumulates +volume on up closes and -volume on down closes,
// starting at 0 on the first bar.
func OBVProxy(closes, volumes []float64) Series {
	n := len(closes)
	out := unavailable(n)
	if len(volumes) != n || n == 0 {
		return out
	}
	out[0] = 0
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}
