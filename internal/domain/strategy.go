package domain

// TokenStrategy is one live strategy map entry, keyed by mint.
// Always in the per-regime shape; flat entries are promoted on load.
type TokenStrategy struct {
	Mint    string
	Enabled bool // master switch
	Regimes map[Regime]RegimeStrategy
}

// RegimeStrategy is the strategy configuration a token uses in one regime.
type RegimeStrategy struct {
	Enabled        bool
	Template       string
	Params         map[string]float64
	StopLossPct    float64 // 0 = disabled
	TakeProfitPct  float64 // 0 = disabled
	MaxPositionSOL float64 // 0 = uncapped
	MaxPositionPct float64 // % of wallet, 0 = uncapped
}

// Clone returns a deep copy.
func (r RegimeStrategy) Clone() RegimeStrategy {
	out := r
	if r.Params != nil {
		out.Params = make(map[string]float64, len(r.Params))
		for k, v := range r.Params {
			out.Params[k] = v
		}
	}
	return out
}
