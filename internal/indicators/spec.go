package indicators

import (
	"fmt"
	"strconv"
)

// Kind identifies an indicator family.
type Kind string

// Indicator kinds.
const (
	KindSMA         Kind = "sma"
	KindEMA         Kind = "ema"
	KindRSI         Kind = "rsi"
	KindConnorsRSI  Kind = "crsi"
	KindMACD        Kind = "macd"
	KindBollinger   Kind = "bb"
	KindATR         Kind = "atr"
	KindADX         Kind = "adx"
	KindVWAP        Kind = "vwap"
	KindOBV         Kind = "obv"
	KindPercentRank Kind = "prank"
)

// Output suffixes for multi-series indicators.
const (
	OutMACDLine   = "macd"
	OutMACDSignal = "macd_signal"
	OutMACDHist   = "macd_hist"
	OutBBUpper    = "bb_upper"
	OutBBMiddle   = "bb_middle"
	OutBBLower    = "bb_lower"
	OutBBWidth    = "bb_width"
	OutADX        = "adx"
	OutPlusDI     = "plus_di"
	OutMinusDI    = "minus_di"
)

// Spec names one parameterized indicator instance.
// Which fields apply depends on Kind:
//   - SMA, EMA, RSI, ATR, ADX, PercentRank: Period
//   - ConnorsRSI: Period (price RSI), Fast (streak RSI), Slow (rank period)
//   - MACD: Fast, Slow, Signal
//   - Bollinger: Period, Mult
type Spec struct {
	Kind   Kind
	Period int
	Fast   int
	Slow   int
	Signal int
	Mult   float64
}

// Key returns the canonical identifier, e.g. "rsi(14)" or "macd(12,26,9)".
func (s Spec) Key() string {
	return string(s.Kind) + s.args()
}

func (s Spec) args() string {
	switch s.Kind {
	case KindVWAP, KindOBV:
		return ""
	case KindConnorsRSI:
		return fmt.Sprintf("(%d,%d,%d)", s.Period, s.Fast, s.Slow)
	case KindMACD:
		return fmt.Sprintf("(%d,%d,%d)", s.Fast, s.Slow, s.Signal)
	case KindBollinger:
		return fmt.Sprintf("(%d,%s)", s.Period, strconv.FormatFloat(s.Mult, 'f', -1, 64))
	default:
		return fmt.Sprintf("(%d)", s.Period)
	}
}

// Outputs returns the snapshot keys this spec produces, in Compute order.
func (s Spec) Outputs() []string {
	a := s.args()
	switch s.Kind {
	case KindMACD:
		return []string{OutMACDLine + a, OutMACDSignal + a, OutMACDHist + a}
	case KindBollinger:
		return []string{OutBBUpper + a, OutBBMiddle + a, OutBBLower + a, OutBBWidth + a}
	case KindADX:
		return []string{OutADX + a, OutPlusDI + a, OutMinusDI + a}
	default:
		return []string{s.Key()}
	}
}

// Output returns the key for a named output of a multi-series spec,
// e.g. Output(OutMACDHist) on a MACD spec.
func (s Spec) Output(name string) string {
	return name + s.args()
}

// Compute evaluates the indicator over OHLCV columns, one series per output.
func (s Spec) Compute(highs, lows, closes, volumes []float64) ([]Series, error) {
	switch s.Kind {
	case KindSMA:
		return []Series{SMA(closes, s.Period)}, nil
	case KindEMA:
		return []Series{EMA(closes, s.Period)}, nil
	case KindRSI:
		return []Series{RSI(closes, s.Period)}, nil
	case KindPercentRank:
		return []Series{PercentRank(closes, s.Period)}, nil
	case KindConnorsRSI:
		return []Series{ConnorsRSI(closes, s.Period, s.Fast, s.Slow)}, nil
	case KindMACD:
		line, sig, hist := MACD(closes, s.Fast, s.Slow, s.Signal)
		return []Series{line, sig, hist}, nil
	case KindBollinger:
		u, m, l, w := Bollinger(closes, s.Period, s.Mult)
		return []Series{u, m, l, w}, nil
	case KindATR:
		return []Series{ATR(highs, lows, closes, s.Period)}, nil
	case KindADX:
		adx, pdi, mdi := ADX(highs, lows, closes, s.Period)
		return []Series{adx, pdi, mdi}, nil
	case KindVWAP:
		return []Series{VWAPProxy(highs, lows, closes, volumes)}, nil
	case KindOBV:
		return []Series{OBVProxy(closes, volumes)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
}

// MinHistory returns the number of leading bars before every output of the
// indicator is available. For MACD that is the signal line's prefix, which is
// longer than the MACD line's.
func (s Spec) MinHistory() int {
	switch s.Kind {
	case KindSMA, KindEMA, KindBollinger:
		return max(s.Period-1, 0)
	case KindRSI, KindATR:
		return s.Period
	case KindPercentRank:
		return s.Period + 1
	case KindConnorsRSI:
		return max(s.Period, s.Fast, s.Slow+1)
	case KindMACD:
		return max(s.Fast, s.Slow) + s.Signal - 2
	case KindADX:
		return 2 * s.Period
	default:
		return 0
	}
}
