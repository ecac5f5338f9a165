package indicators

// RSI is Wilder's relative strength index. The first value, at index p, uses
// simple averages of the first p changes; later values use Wilder smoothing.
// When the average loss is zero the value is 100.
func RSI(x []float64, p int) Series {
	out := unavailable(len(x))
	if p <= 0 || len(x) < p+1 {
		return out
	}

	var gain, loss float64
	for i := 1; i <= p; i++ {
		d := x[i] - x[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(p)
	avgLoss := loss / float64(p)
	out[p] = rsiValue(avgGain, avgLoss)

	for i := p + 1; i < len(x); i++ {
		d := x[i] - x[i-1]
		var g, l float64
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(p-1) + g) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + l) / float64(p)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
