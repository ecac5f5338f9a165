package indicators

// MACD returns the MACD line (EMA(fast) - EMA(slow)), its signal line and the
// histogram. The signal EMA starts at the first index where the line is defined,
// so warm-up values never leak into it.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist Series) {
	n := len(closes)
	line = unavailable(n)
	sig = unavailable(n)
	hist = unavailable(n)
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return line, sig, hist
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	for i := 0; i < n; i++ {
		f, ok1 := fastEMA.At(i)
		s, ok2 := slowEMA.At(i)
		if ok1 && ok2 {
			line[i] = f - s
		}
	}

	start := line.UnavailablePrefix()
	if start >= n {
		return line, sig, hist
	}
	sig = emaFrom(line, signal, start)
	for i := 0; i < n; i++ {
		l, ok1 := line.At(i)
		s, ok2 := sig.At(i)
		if ok1 && ok2 {
			hist[i] = l - s
		}
	}
	return line, sig, hist
}
