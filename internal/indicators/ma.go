package indicators

import "math"

// SMA is the simple moving average over the trailing p values.
// Available from index p-1.
func SMA(x []float64, p int) Series {
	out := unavailable(len(x))
	if p <= 0 || len(x) < p {
		return out
	}
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= p {
			sum -= x[i-p]
		}
		if i >= p-1 {
			out[i] = sum / float64(p)
		}
	}
	return out
}

// EMA is the exponential moving average with smoothing 2/(p+1), seeded with
// the SMA of the first full window. Available from index p-1.
func EMA(x []float64, p int) Series {
	return emaFrom(x, p, 0)
}

// emaFrom runs EMA over x starting at index start, ignoring earlier values.
// Used to smooth series that have their own warm-up prefix.
func emaFrom(x []float64, p, start int) Series {
	out := unavailable(len(x))
	if p <= 0 || start < 0 || len(x)-start < p {
		return out
	}
	k := 2.0 / float64(p+1)

	var seed float64
	for i := start; i < start+p; i++ {
		seed += x[i]
	}
	seed /= float64(p)
	out[start+p-1] = seed
	for i := start + p; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// meanStd returns the rolling mean and population standard deviation over
// window p. Available from index p-1.
func meanStd(x []float64, p int) (mean, std Series) {
	n := len(x)
	mean = unavailable(n)
	std = unavailable(n)
	if p <= 0 || n < p {
		return mean, std
	}
	for i := p - 1; i < n; i++ {
		var sum float64
		for j := i - p + 1; j <= i; j++ {
			sum += x[j]
		}
		m := sum / float64(p)
		var sq float64
		for j := i - p + 1; j <= i; j++ {
			d := x[j] - m
			sq += d * d
		}
		mean[i] = m
		std[i] = math.Sqrt(sq / float64(p))
	}
	return mean, std
}
