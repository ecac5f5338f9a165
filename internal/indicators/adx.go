package indicators

import "math"

// ADX returns the average directional index with the +DI and -DI lines.
// +DM/-DM and true range are Wilder-smoothed from index p, giving DI and DX from
// index p. ADX is seeded with the mean of the first p DX values and emitted
// after one further smoothing step, so it needs 2p+1 bars (first value at 2p).
func ADX(highs, lows, closes []float64, p int) (adx, plusDI, minusDI Series) {
	n := len(closes)
	adx = unavailable(n)
	plusDI = unavailable(n)
	minusDI = unavailable(n)
	if p <= 0 || n < p+1 || len(highs) != n || len(lows) != n {
		return adx, plusDI, minusDI
	}

	var smTR, smPlus, smMinus float64
	dx := unavailable(n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		var pdm, mdm float64
		if up > down && up > 0 {
			pdm = up
		}
		if down > up && down > 0 {
			mdm = down
		}
		tr := trueRange(highs[i], lows[i], closes[i-1])

		if i <= p {
			smTR += tr
			smPlus += pdm
			smMinus += mdm
			if i < p {
				continue
			}
		} else {
			smTR = smTR - smTR/float64(p) + tr
			smPlus = smPlus - smPlus/float64(p) + pdm
			smMinus = smMinus - smMinus/float64(p) + mdm
		}

		if smTR == 0 {
			plusDI[i], minusDI[i], dx[i] = 0, 0, 0
			continue
		}
		pdi := 100 * smPlus / smTR
		mdi := 100 * smMinus / smTR
		plusDI[i] = pdi
		minusDI[i] = mdi
		if sum := pdi + mdi; sum > 0 {
			dx[i] = 100 * math.Abs(pdi-mdi) / sum
		} else {
			dx[i] = 0
		}
	}

	if n < 2*p+1 {
		return adx, plusDI, minusDI
	}
	var seed float64
	for i := p; i < 2*p; i++ {
		seed += dx[i]
	}
	prev := seed / float64(p)
	for i := 2 * p; i < n; i++ {
		prev = (prev*float64(p-1) + dx[i]) / float64(p)
		adx[i] = prev
	}
	return adx, plusDI, minusDI
}
