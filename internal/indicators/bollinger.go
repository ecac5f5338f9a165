package indicators

// Bollinger returns upper, middle and lower bands plus band width over window p.
// middle = SMA(p); bands are middle ± mult * population stddev;
// width = (upper-lower)/middle when middle > 0, otherwise 0.
func Bollinger(closes []float64, p int, mult float64) (upper, middle, lower, width Series) {
	n := len(closes)
	upper = unavailable(n)
	lower = unavailable(n)
	width = unavailable(n)
	middle, std := meanStd(closes, p)

	for i := 0; i < n; i++ {
		m, ok1 := middle.At(i)
		sd, ok2 := std.At(i)
		if !ok1 || !ok2 {
			continue
		}
		upper[i] = m + mult*sd
		lower[i] = m - mult*sd
		if m > 0 {
			width[i] = (upper[i] - lower[i]) / m
		} else {
			width[i] = 0
		}
	}
	return upper, middle, lower, width
}
