package indicators

import "math"

// Streak returns the signed run length of consecutive up (positive) or down
// (negative) closes. An unchanged close resets the streak to 0. Index 0 is 0.
func Streak(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			if out[i-1] > 0 {
				out[i] = out[i-1] + 1
			} else {
				out[i] = 1
			}
		case closes[i] < closes[i-1]:
			if out[i-1] < 0 {
				out[i] = out[i-1] - 1
			} else {
				out[i] = -1
			}
		default:
			out[i] = 0
		}
	}
	return out
}

// PercentRank is the percentage of the previous p one-bar returns that are
// less than or equal to the current return, in [0,100]. Available from index p+1.
func PercentRank(closes []float64, p int) Series {
	out := unavailable(len(closes))
	if p <= 0 || len(closes) < p+2 {
		return out
	}
	rets := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			rets[i] = math.NaN()
			continue
		}
		rets[i] = closes[i]/closes[i-1] - 1
	}

	for i := p + 1; i < len(closes); i++ {
		cur := rets[i]
		if math.IsNaN(cur) {
			continue
		}
		count := 0
		valid := true
		for j := i - p; j < i; j++ {
			if math.IsNaN(rets[j]) {
				valid = false
				break
			}
			if rets[j] <= cur {
				count++
			}
		}
		if valid {
			out[i] = 100 * float64(count) / float64(p)
		}
	}
	return out
}

// ConnorsRSI is the arithmetic mean of RSI(closes, rsiP), RSI(streak, streakP)
// and PercentRank(closes, rankP). Unavailable unless all three are available.
func ConnorsRSI(closes []float64, rsiP, streakP, rankP int) Series {
	out := unavailable(len(closes))
	priceRSI := RSI(closes, rsiP)
	streakRSI := RSI(Streak(closes), streakP)
	rank := PercentRank(closes, rankP)

	for i := range closes {
		a, ok1 := priceRSI.At(i)
		b, ok2 := streakRSI.At(i)
		c, ok3 := rank.At(i)
		if ok1 && ok2 && ok3 {
			out[i] = (a + b + c) / 3
		}
	}
	return out
}
