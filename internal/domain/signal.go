package domain

// Signal is the decision a strategy template returns for one bar.
type Signal int

// Signal values. The zero value is Hold.
const (
	SignalHold Signal = iota
	SignalBuy
	SignalSell
)

// String returns the lowercase signal name.
func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "buy"
	case SignalSell:
		return "sell"
	default:
		return "hold"
	}
}
